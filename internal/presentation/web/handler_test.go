package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"strings"
	"testing"

	"fusionserver/internal/application"
	"fusionserver/internal/domain"
	"fusionserver/internal/infrastructure/config"
	"fusionserver/internal/infrastructure/gemini"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const testAPIKeyEnv = "FUSION_HANDLER_TEST_API_KEY"

// fakeGenerationClient は、固定の応答を返す生成クライアントです
type fakeGenerationClient struct {
	reply *domain.GenerationReply
	err   error

	calls   int
	lastReq *domain.FusionRequest
}

func (f *fakeGenerationClient) Generate(ctx context.Context, apiKey string, req *domain.FusionRequest) (*domain.GenerationReply, error) {
	f.calls++
	f.lastReq = req
	return f.reply, f.err
}

type formFile struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

type formInput struct {
	files  []formFile
	values map[string]string
}

func buildMultipart(t *testing.T, input formInput) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for _, f := range input.files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		if f.contentType != "" {
			header.Set("Content-Type", f.contentType)
		}
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for k, v := range input.values {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func bothImages() []formFile {
	return []formFile{
		{field: FieldBaseImage, filename: "room.jpg", contentType: "image/jpeg", data: []byte("room")},
		{field: FieldProductImage, filename: "lamp.png", contentType: "image/png", data: []byte("lamp")},
	}
}

type testServer struct {
	router http.Handler
	client *fakeGenerationClient
}

func newTestServer(t *testing.T, client *fakeGenerationClient, maxUpload int64) *testServer {
	t.Helper()
	t.Setenv(testAPIKeyEnv, "test-key")

	service := application.NewFusionService(client, config.NewEnvCredentialSource(testAPIKeyEnv), gemini.ClassifyFailure, zap.NewNop())
	handler := NewFusionHandler(service, maxUpload, zap.NewNop())
	return &testServer{router: NewRouter(handler, zap.NewNop()), client: client}
}

func (s *testServer) post(t *testing.T, input formInput) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := buildMultipart(t, input)
	req := httptest.NewRequest(http.MethodPost, FusePath, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func imageReply() *domain.GenerationReply {
	return domain.NewGenerationReply(domain.InlineDataPart{MIMEType: "image/webp", Data: []byte("fused")})
}

func TestFusionHandler_Success(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{reply: imageReply()}, 1<<20)

	rec := s.post(t, formInput{files: bothImages(), values: map[string]string{FieldPrompt: "  place the lamp on the desk "}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/webp", rec.Header().Get("Content-Type"))
	assert.Equal(t, "5", rec.Header().Get("Content-Length"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	assert.Equal(t, []byte("fused"), rec.Body.Bytes())

	require.Equal(t, 1, s.client.calls)
	assert.Equal(t, "place the lamp on the desk", s.client.lastReq.Instruction)
	assert.Equal(t, "image/jpeg", s.client.lastReq.BaseImage.MIMEType)
	assert.Equal(t, []byte("room"), s.client.lastReq.BaseImage.Data)
	assert.Equal(t, "lamp.png", s.client.lastReq.ProductImage.Filename)
}

func TestFusionHandler_DefaultInstruction(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{reply: imageReply()}, 1<<20)

	rec := s.post(t, formInput{files: bothImages()})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DefaultInstruction, s.client.lastReq.Instruction)
}

func TestFusionHandler_DefaultMIMETypeOnReply(t *testing.T) {
	reply := domain.NewGenerationReply(domain.InlineDataPart{Data: []byte("png")})
	s := newTestServer(t, &fakeGenerationClient{reply: reply}, 1<<20)

	rec := s.post(t, formInput{files: bothImages()})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.DefaultMIMEType, rec.Header().Get("Content-Type"))
}

func TestFusionHandler_MissingImages(t *testing.T) {
	images := bothImages()

	tests := []struct {
		name  string
		input formInput
	}{
		{name: "両方なし", input: formInput{values: map[string]string{FieldPrompt: "x"}}},
		{name: "ベース画像なし", input: formInput{files: images[1:]}},
		{name: "商品画像なし", input: formInput{files: images[:1]}},
		{
			name:  "テキストフィールドはファイルとみなさない",
			input: formInput{
				files:  images[:1],
				values: map[string]string{FieldProductImage: "not-a-file"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &fakeGenerationClient{reply: imageReply()}, 1<<20)

			rec := s.post(t, tt.input)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decodeError(t, rec)
			assert.Contains(t, body["error"], "baseImage")
			assert.Contains(t, body["error"], "productImage")
			assert.Equal(t, 0, s.client.calls)
		})
	}
}

func TestFusionHandler_NotMultipart(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{}, 1<<20)

	req := httptest.NewRequest(http.MethodPost, FusePath, strings.NewReader(`{"baseImage":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, domain.MissingImageMessage, body["error"])
	assert.NotEmpty(t, body["details"])
}

func TestFusionHandler_PromptTooLong(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{reply: imageReply()}, 1<<20)

	rec := s.post(t, formInput{files: bothImages(), values: map[string]string{FieldPrompt: strings.Repeat("p", 301)}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Prompt too long (max 300 chars).", decodeError(t, rec)["error"])
	assert.Equal(t, 0, s.client.calls)
}

func TestFusionHandler_PromptAtLimit(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{reply: imageReply()}, 1<<20)

	rec := s.post(t, formInput{files: bothImages(), values: map[string]string{FieldPrompt: strings.Repeat("p", 300)}})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFusionHandler_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{reply: imageReply()}, 64)

	files := bothImages()
	files[0].data = bytes.Repeat([]byte("x"), 4096)
	rec := s.post(t, formInput{files: files})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, s.client.calls)
}

func TestFusionHandler_MissingCredential(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{reply: imageReply()}, 1<<20)
	t.Setenv(testAPIKeyEnv, "")

	rec := s.post(t, formInput{files: bothImages()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Server misconfigured: missing GOOGLE_API_KEY.", decodeError(t, rec)["error"])
	assert.Equal(t, 0, s.client.calls)
}

func TestFusionHandler_UpstreamNoImage(t *testing.T) {
	reply := domain.NewGenerationReply(domain.TextPart{Text: "a"}, domain.TextPart{Text: "b"})
	s := newTestServer(t, &fakeGenerationClient{reply: reply}, 1<<20)

	rec := s.post(t, formInput{files: bothImages()})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Model did not return an image.", body["error"])
	assert.Equal(t, "a\nb", body["modelText"])
}

func TestFusionHandler_UpstreamNoContent(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{reply: domain.NewGenerationReply()}, 1<<20)

	rec := s.post(t, formInput{files: bothImages()})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, domain.NoContentPlaceholder, decodeError(t, rec)["modelText"])
}

func TestFusionHandler_RateLimited(t *testing.T) {
	tests := []struct {
		name      string
		details   []map[string]any
		wantRetry float64
	}{
		{
			name: "RetryInfoあり",
			details: []map[string]any{
				{"@type": "type.googleapis.com/google.rpc.RetryInfo", "retryDelay": "37s"},
			},
			wantRetry: 37,
		},
		{
			name:      "RetryInfoなし",
			details:   nil,
			wantRetry: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeGenerationClient{err: genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Details: tt.details}}
			s := newTestServer(t, client, 1<<20)

			rec := s.post(t, formInput{files: bothImages()})

			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, "Rate limited by Gemini API. Please wait and try again.", body["error"])
			assert.Equal(t, tt.wantRetry, body["retryAfterSec"])
			assert.Equal(t, strconv.Itoa(int(tt.wantRetry)), rec.Header().Get("Retry-After"))
			assert.Equal(t, 1, client.calls)
		})
	}
}

func TestFusionHandler_GenerationFailed(t *testing.T) {
	client := &fakeGenerationClient{err: genai.APIError{Code: 400, Message: "Image too small", Status: "INVALID_ARGUMENT"}}
	s := newTestServer(t, client, 1<<20)

	rec := s.post(t, formInput{files: bothImages()})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Failed to generate image.", body["error"])
	assert.Equal(t, "Image too small", body["details"])
	assert.NotContains(t, body, "retryAfterSec")
}

func TestRouter_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, &fakeGenerationClient{}, 1<<20)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, FusePath, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, 0, s.client.calls)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.KindValidation))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.KindConfig))
	assert.Equal(t, http.StatusTooManyRequests, StatusFor(domain.KindRateLimited))
	assert.Equal(t, http.StatusBadGateway, StatusFor(domain.KindUpstreamNoImage))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.KindGenerationFailed))
}
