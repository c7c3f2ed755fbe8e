package domain

import (
	"fmt"
	"strings"
)

// ReplyPart は、生成サービスの応答に含まれる断片です
// 実装はInlineDataPartとTextPartのみです
type ReplyPart interface {
	isReplyPart()
}

// InlineDataPart は、バイナリデータとMIMEタイプを持つ断片です
type InlineDataPart struct {
	MIMEType string
	Data     []byte
}

// TextPart は、テキストのみを持つ断片です
type TextPart struct {
	Text string
}

func (InlineDataPart) isReplyPart() {}
func (TextPart) isReplyPart()       {}

// GenerationReply は、最初の候補の断片を順序通りに保持します
type GenerationReply struct {
	Parts []ReplyPart
}

// NewGenerationReply は、新しいGenerationReplyを作成します
func NewGenerationReply(parts ...ReplyPart) *GenerationReply {
	return &GenerationReply{Parts: parts}
}

// Resolve は、応答から最初の画像データを取り出します
// 画像がなければテキスト断片を改行で結合した診断文字列とともにUpstreamNoImageを返します
func (r *GenerationReply) Resolve() (*FusedImage, error) {
	if r == nil {
		return nil, NewUpstreamNoImageError("")
	}

	var texts []string
	for i, part := range r.Parts {
		switch p := part.(type) {
		case InlineDataPart:
			if len(p.Data) == 0 {
				continue
			}
			mimeType := p.MIMEType
			if mimeType == "" {
				mimeType = DefaultMIMEType
			}
			return &FusedImage{Data: p.Data, MIMEType: mimeType}, nil
		case TextPart:
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		default:
			return nil, NewGenerationFailedError(fmt.Sprintf("unsupported reply part %d: %T", i, part), nil)
		}
	}

	return nil, NewUpstreamNoImageError(strings.Join(texts, "\n"))
}
