package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	// MaxInstructionLength は、ユーザー指示の最大文字数です
	MaxInstructionLength = 300

	// DefaultInstruction は、ユーザー指示が空の場合に使用する汎用指示です
	DefaultInstruction = "Replace the product in the base image with the product from the second image, matching perspective, lighting, shadows, and scale. Keep everything else unchanged."

	// SystemFraming は、モデルに必ず付与する固定の指示です。ユーザー入力では変更できません
	SystemFraming = "Create a new image by combining the provided images. Maintain photorealism, perspective, and lighting. Output only the final composed image."
)

// NormalizeInstruction は、ユーザー指示をトリムして長さを検証し、空の場合は既定の指示を返します
// 長さの検証はユーザーが入力したテキストにのみ適用されます
func NormalizeInstruction(raw string) (string, error) {
	instruction := strings.TrimSpace(raw)
	if instruction == "" {
		return DefaultInstruction, nil
	}
	if utf8.RuneCountInString(instruction) > MaxInstructionLength {
		return "", NewValidationError(ErrInstructionTooLong, "Prompt too long (max 300 chars).", "")
	}
	return instruction, nil
}

// ComposeInstruction は、固定の指示とユーザー指示を結合したテキストを返します
func ComposeInstruction(instruction string) string {
	return SystemFraming + "\nUser instruction: " + instruction
}
