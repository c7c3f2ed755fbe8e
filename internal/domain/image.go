package domain

// DefaultMIMEType は、MIMEタイプが宣言されていない画像に適用する既定値です
const DefaultMIMEType = "image/png"

// ImageAsset は、リクエストで受け取った画像1枚を表す値オブジェクトです
// 生成後に変更されることはありません
type ImageAsset struct {
	Filename string
	MIMEType string
	Data     []byte
}

// NewImageAsset は、新しいImageAssetを作成します
func NewImageAsset(filename, mimeType string, data []byte) *ImageAsset {
	return &ImageAsset{
		Filename: filename,
		MIMEType: mimeType,
		Data:     data,
	}
}

// Size は、画像のバイト長を返します
func (a *ImageAsset) Size() int {
	return len(a.Data)
}

// EffectiveMIMEType は、宣言されたMIMEタイプ、未宣言の場合はDefaultMIMETypeを返します
func (a *ImageAsset) EffectiveMIMEType() string {
	if a.MIMEType == "" {
		return DefaultMIMEType
	}
	return a.MIMEType
}

// FusedImage は、合成に成功した画像を表します
type FusedImage struct {
	Data     []byte
	MIMEType string
}
