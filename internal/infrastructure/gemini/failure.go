package gemini

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"fusionserver/internal/domain"

	"google.golang.org/genai"
)

// DefaultRetryAfterSeconds は、レート制限時に待機時間が取得できない場合の既定値です
const DefaultRetryAfterSeconds = 10

var retryDelayPattern = regexp.MustCompile(`([0-9]+)s$`)

// statusCoder は、HTTPステータスを直接保持するエラーです
type statusCoder interface {
	StatusCode() int
}

// responseCarrier は、HTTPレスポンスを内包するエラーです
type responseCarrier interface {
	HTTPResponse() *http.Response
}

// ClassifyFailure は、生成呼び出しで発生したエラーを分類します
// 429はレート制限、それ以外はすべて生成失敗として扱います
func ClassifyFailure(err error) *domain.FusionError {
	if err == nil {
		return domain.NewGenerationFailedError("unknown error", nil)
	}

	apiErr, isAPIErr := asAPIError(err)
	if statusOf(err, apiErr, isAPIErr) == http.StatusTooManyRequests {
		return domain.NewRateLimitedError(retryAfterSeconds(apiErr.Details), err)
	}

	message := err.Error()
	if isAPIErr && apiErr.Message != "" {
		message = apiErr.Message
	}
	return domain.NewGenerationFailedError(message, err)
}

// asAPIError は、エラーチェーンからgenai.APIErrorを取り出します
func asAPIError(err error) (genai.APIError, bool) {
	var value genai.APIError
	if errors.As(err, &value) {
		return value, true
	}
	var ptr *genai.APIError
	if errors.As(err, &ptr) && ptr != nil {
		return *ptr, true
	}
	return genai.APIError{}, false
}

// statusOf は、エラー自身のステータス、次に内包するHTTPレスポンスのステータスを返します
func statusOf(err error, apiErr genai.APIError, isAPIErr bool) int {
	if isAPIErr && apiErr.Code != 0 {
		return apiErr.Code
	}

	var sc statusCoder
	if errors.As(err, &sc) && sc.StatusCode() != 0 {
		return sc.StatusCode()
	}

	var rc responseCarrier
	if errors.As(err, &rc) {
		if resp := rc.HTTPResponse(); resp != nil {
			return resp.StatusCode
		}
	}
	return 0
}

// retryAfterSeconds は、RetryInfoのretryDelayから待機秒数を取り出します
func retryAfterSeconds(details []map[string]any) int {
	for _, detail := range details {
		typeName, _ := detail["@type"].(string)
		if !strings.Contains(typeName, "RetryInfo") {
			continue
		}
		delay, ok := detail["retryDelay"]
		if !ok || delay == nil {
			continue
		}
		match := retryDelayPattern.FindStringSubmatch(fmt.Sprint(delay))
		if match == nil {
			continue
		}
		if seconds, err := strconv.Atoi(match[1]); err == nil {
			return seconds
		}
	}
	return DefaultRetryAfterSeconds
}
