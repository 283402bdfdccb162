package domain

import "time"

// SourceImage は呼び出し元が読み込んだ生の画像です。
// ピクセル寸法はデコード時に導出するため保持しません。
type SourceImage struct {
	Name     string
	Data     []byte
	MimeType string
}

// EncodedPayload は data URI 形式 (data:<mime>;base64,<data>) の画像表現です。
// リモートサービスへの転送単位であり、生成結果のメモリ上の表現でもあります。
type EncodedPayload string

// GenerationRequest は商品画像からのバリエーション生成要求です。
type GenerationRequest struct {
	Prompt       string
	AspectRatio  string
	VariantCount int
	Seed         *int64 // nil でランダム。指定時はバリエーションごとに +i した値を使う
}

// UpscaleRequest は生成済み画像の 4K アップスケール要求です。
type UpscaleRequest struct {
	Image       EncodedPayload
	Prompt      string // 生成時のプロンプト（文脈として渡す）
	AspectRatio string
}

// ImageResponse は生成された 1 件のバリエーションです。
type ImageResponse struct {
	Payload  EncodedPayload
	UsedSeed *int64 // 送信したシード。シード未指定なら nil
}

// GenerationResult は 1 回の生成要求で得られたバリエーション群です。
type GenerationResult struct {
	ID          string
	Images      []ImageResponse
	Prompt      string
	AspectRatio string
	Requested   int
	CreatedAt   time.Time
}

// Partial は要求数より少ない画像しか得られなかったかを返します。
func (r GenerationResult) Partial() bool {
	return len(r.Images) < r.Requested
}
