package domain

import "unicode/utf8"

// FusionRequest は、2枚の画像と指示からなる合成リクエストです
type FusionRequest struct {
	BaseImage    *ImageAsset
	ProductImage *ImageAsset
	Instruction  string
}

// NewFusionRequest は、入力を検証して新しいFusionRequestを作成します
func NewFusionRequest(base, product *ImageAsset, rawInstruction string) (*FusionRequest, error) {
	if base == nil || product == nil {
		return nil, NewValidationError(ErrMissingImage, MissingImageMessage, "")
	}

	instruction, err := NormalizeInstruction(rawInstruction)
	if err != nil {
		return nil, err
	}

	req := &FusionRequest{
		BaseImage:    base,
		ProductImage: product,
		Instruction:  instruction,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate は、リクエストの不変条件を検証します
// NewFusionRequestで作成したリクエストは何度検証してもエラーになりません
func (r *FusionRequest) Validate() error {
	if r.BaseImage == nil || r.ProductImage == nil {
		return NewValidationError(ErrMissingImage, MissingImageMessage, "")
	}
	if r.Instruction == "" {
		return NewValidationError(ErrInvalidPrompt, "Prompt is empty.", "")
	}
	if utf8.RuneCountInString(r.Instruction) > MaxInstructionLength {
		return NewValidationError(ErrInstructionTooLong, "Prompt too long (max 300 chars).", "")
	}
	return nil
}

// Prompt は、生成サービスに送るテキストを返します
func (r *FusionRequest) Prompt() string {
	return ComposeInstruction(r.Instruction)
}
