package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// FusePath は、画像合成エンドポイントのパスです
const FusePath = "/api/fuse"

// NewRouter は、画像合成エンドポイントを登録したルーターを作成します
func NewRouter(handler http.Handler, logger *zap.Logger) *mux.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := mux.NewRouter()
	r.Use(RequestID, RequestLogger(logger), Recovery(logger))
	r.Handle(FusePath, handler).Methods(http.MethodPost)
	return r
}
