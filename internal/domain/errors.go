package domain

import (
	"errors"
	"fmt"
)

// ドメイン固有のエラー型を定義
var (
	// ErrMissingImage は、合成に必要な画像ファイルが揃っていない場合のエラーです
	ErrMissingImage = errors.New("missing image")

	// ErrInstructionTooLong は、ユーザー指示が最大文字数を超えた場合のエラーです
	ErrInstructionTooLong = errors.New("instruction too long")

	// ErrInvalidPrompt は、無効なプロンプトの場合のエラーです
	ErrInvalidPrompt = errors.New("invalid prompt")

	// ErrBodyTooLarge は、リクエストボディがアップロード上限を超えた場合のエラーです
	ErrBodyTooLarge = errors.New("request body too large")

	// ErrMissingCredential は、APIキーが設定されていない場合のエラーです
	ErrMissingCredential = errors.New("missing credential")

	// ErrNoImage は、生成サービスが画像を返さなかった場合のエラーです
	ErrNoImage = errors.New("upstream returned no image")
)

// MissingImageMessage は、画像が不足している場合の利用者向けメッセージです
const MissingImageMessage = "Both baseImage and productImage are required."

// NoContentPlaceholder は、モデルがテキストも返さなかった場合の診断文字列です
const NoContentPlaceholder = "No content."

// ErrorKind は、合成処理の失敗分類です
type ErrorKind int

const (
	KindGenerationFailed ErrorKind = iota
	KindValidation
	KindConfig
	KindRateLimited
	KindUpstreamNoImage
)

var errorKindNames = []string{
	"generation_failed",
	"validation",
	"config",
	"rate_limited",
	"upstream_no_image",
}

// String は、ErrorKindの識別名を返します
func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "unknown"
}

// FusionError は、合成処理の失敗結果です
type FusionError struct {
	Kind ErrorKind
	// Message は利用者向けの概要です
	Message string
	// Detail は失敗の補足情報です。UpstreamNoImageではモデルの出力テキストになります
	Detail string
	// RetryAfterSeconds はRateLimitedの場合のみ設定されます
	RetryAfterSeconds int
	Err               error
}

func (e *FusionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *FusionError) Unwrap() error {
	return e.Err
}

// NewValidationError は、呼び出し側の入力に起因するエラーを作成します
func NewValidationError(cause error, message, detail string) *FusionError {
	return &FusionError{
		Kind:    KindValidation,
		Message: message,
		Detail:  detail,
		Err:     cause,
	}
}

// NewConfigError は、デプロイ設定の不備に起因するエラーを作成します
func NewConfigError(message string, cause error) *FusionError {
	return &FusionError{
		Kind:    KindConfig,
		Message: message,
		Err:     cause,
	}
}

// NewRateLimitedError は、生成サービスのレート制限によるエラーを作成します
func NewRateLimitedError(retryAfterSeconds int, cause error) *FusionError {
	return &FusionError{
		Kind:              KindRateLimited,
		Message:           "Rate limited by Gemini API. Please wait and try again.",
		RetryAfterSeconds: retryAfterSeconds,
		Err:               cause,
	}
}

// NewUpstreamNoImageError は、生成サービスが画像を返さなかった場合のエラーを作成します
func NewUpstreamNoImageError(modelText string) *FusionError {
	if modelText == "" {
		modelText = NoContentPlaceholder
	}
	return &FusionError{
		Kind:    KindUpstreamNoImage,
		Message: "Model did not return an image.",
		Detail:  modelText,
		Err:     ErrNoImage,
	}
}

// NewGenerationFailedError は、分類できない生成失敗のエラーを作成します
func NewGenerationFailedError(detail string, cause error) *FusionError {
	return &FusionError{
		Kind:    KindGenerationFailed,
		Message: "Failed to generate image.",
		Detail:  detail,
		Err:     cause,
	}
}

// AsFusionError は、errをFusionErrorとして取り出します
// FusionErrorを含まないエラーはGenerationFailedとして扱います
func AsFusionError(err error) *FusionError {
	var fe *FusionError
	if errors.As(err, &fe) {
		return fe
	}
	return NewGenerationFailedError(err.Error(), err)
}
