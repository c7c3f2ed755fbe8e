package web

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"fusionserver/internal/domain"

	"go.uber.org/zap"
)

// マルチパートのフィールド名
const (
	FieldBaseImage    = "baseImage"
	FieldProductImage = "productImage"
	FieldPrompt       = "prompt"
)

// multipartMemory は、ParseMultipartFormがメモリに保持する上限です
const multipartMemory = 8 << 20

// Fuser は、画像合成を行うサービスのインターフェースです
type Fuser interface {
	Fuse(ctx context.Context, req *domain.FusionRequest) (*domain.FusedImage, error)
}

// FusionHandler は、画像合成エンドポイントのハンドラです
type FusionHandler struct {
	service        Fuser
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewFusionHandler は、新しいFusionHandlerを作成します
func NewFusionHandler(service Fuser, maxUploadBytes int64, logger *zap.Logger) *FusionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FusionHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// ServeHTTP は、POST /api/fuse を処理します
func (h *FusionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(zap.String("request_id", RequestIDFromContext(r.Context())))

	req, err := h.parseRequest(w, r)
	if err != nil {
		WriteError(w, err, logger)
		return
	}

	image, err := h.service.Fuse(r.Context(), req)
	if err != nil {
		WriteError(w, err, logger)
		return
	}

	WriteImage(w, image)
}

// parseRequest は、マルチパートフォームからFusionRequestを作成します
func (h *FusionHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*domain.FusionRequest, error) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, domain.NewValidationError(domain.ErrBodyTooLarge, "Request body too large.", err.Error())
		}
		return nil, domain.NewValidationError(domain.ErrMissingImage, domain.MissingImageMessage, err.Error())
	}
	defer r.MultipartForm.RemoveAll()

	base, err := readAsset(r.MultipartForm, FieldBaseImage)
	if err != nil {
		return nil, err
	}
	product, err := readAsset(r.MultipartForm, FieldProductImage)
	if err != nil {
		return nil, err
	}

	return domain.NewFusionRequest(base, product, formValue(r.MultipartForm, FieldPrompt))
}

// readAsset は、ファイルフィールドを読み込みます。同名のテキストフィールドはファイルとみなしません
func readAsset(form *multipart.Form, field string) (*domain.ImageAsset, error) {
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, domain.NewValidationError(domain.ErrMissingImage, domain.MissingImageMessage, "")
	}

	header := headers[0]
	file, err := header.Open()
	if err != nil {
		return nil, domain.NewValidationError(domain.ErrMissingImage, domain.MissingImageMessage, err.Error())
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, domain.NewValidationError(domain.ErrMissingImage, domain.MissingImageMessage, err.Error())
	}

	return domain.NewImageAsset(header.Filename, header.Header.Get("Content-Type"), data), nil
}

func formValue(form *multipart.Form, field string) string {
	if values := form.Value[field]; len(values) > 0 {
		return values[0]
	}
	return ""
}
