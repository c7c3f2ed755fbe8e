package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"fusionserver/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse は、失敗時に返すJSONボディです
type ErrorResponse struct {
	Error         string `json:"error"`
	Details       string `json:"details,omitempty"`
	ModelText     string `json:"modelText,omitempty"`
	RetryAfterSec *int   `json:"retryAfterSec,omitempty"`
}

// StatusFor は、失敗分類に対応するHTTPステータスを返します
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindConfig:
		return http.StatusInternalServerError
	case domain.KindRateLimited:
		return http.StatusTooManyRequests
	case domain.KindUpstreamNoImage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse は、FusionErrorからレスポンスボディを作成します
func NewErrorResponse(fe *domain.FusionError) ErrorResponse {
	resp := ErrorResponse{Error: fe.Message}
	switch fe.Kind {
	case domain.KindRateLimited:
		retry := fe.RetryAfterSeconds
		resp.RetryAfterSec = &retry
	case domain.KindUpstreamNoImage:
		resp.ModelText = fe.Detail
	default:
		resp.Details = fe.Detail
	}
	return resp
}

// WriteJSON は、JSONレスポンスを書き込みます
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError は、エラーをJSONレスポンスとして書き込みます
func WriteError(w http.ResponseWriter, err error, logger *zap.Logger) {
	fe := domain.AsFusionError(err)
	status := StatusFor(fe.Kind)

	if fe.Kind == domain.KindRateLimited {
		w.Header().Set("Retry-After", strconv.Itoa(fe.RetryAfterSeconds))
	}

	if logger != nil {
		logger.Info("エラーレスポンスを返却",
			zap.Stringer("kind", fe.Kind),
			zap.Int("status", status),
			zap.String("message", fe.Message),
		)
	}

	WriteJSON(w, status, NewErrorResponse(fe))
}

// WriteImage は、生成された画像をそのままレスポンスとして書き込みます
func WriteImage(w http.ResponseWriter, image *domain.FusedImage) {
	w.Header().Set("Content-Type", image.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(image.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(image.Data)
}
