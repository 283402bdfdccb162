package imgutil

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"github.com/shouni/gemini-product-kit/pkg/domain"

	_ "golang.org/x/image/webp"
)

// Decode は画像データ（PNG, GIF, JPEG, WebP）をデコードします。
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return img, format, nil
}

// DecodeConfig はピクセルデータを展開せずに寸法とフォーマットだけを読み取ります。
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}
	return cfg, format, nil
}

// EncodeJPEG は画像を指定品質の JPEG にエンコードします。
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEncode, err)
	}
	return buf.Bytes(), nil
}
