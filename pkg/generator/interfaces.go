package generator

import (
	"context"
	"time"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"google.golang.org/genai"
)

// ContentGenerator はモデルへの生成リクエストを送るインターフェースです。
// *genai.Models がこれを満たします。
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ClientFactory は API キーから ContentGenerator を組み立てます。
// 認証情報の切り替えを反映するため、リクエストの試行ごとに呼び出されます。
type ClientFactory func(ctx context.Context, apiKey string) (ContentGenerator, error)

// CredentialProvider は現在有効な API キーを返します。
type CredentialProvider interface {
	APIKey(ctx context.Context) (string, error)
}

// ImageExecutor は画像パーツの準備とリクエスト実行を担当するインターフェースです。
type ImageExecutor interface {
	// PrepareImageParts は画像を正規化し、入力順のまま genai.Part に変換します。
	PrepareImageParts(ctx context.Context, images []domain.SourceImage, aspectRatio string) ([]*genai.Part, error)
	// PreparePayloadPart は data URI を genai.Part に戻します。
	PreparePayloadPart(p domain.EncodedPayload) (*genai.Part, error)
	// ExecuteRequest は再試行付きでリクエストを実行します。
	ExecuteRequest(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// ImageGenerator は商品画像からバリエーションを生成します。
type ImageGenerator interface {
	Generate(ctx context.Context, images []domain.SourceImage, req domain.GenerationRequest) ([]domain.ImageResponse, error)
}

// StyleDescriber はスタイル参照画像をテキストの説明に変換します。
type StyleDescriber interface {
	Describe(ctx context.Context, img domain.SourceImage) (string, error)
}

// Upscaler は生成済み画像を高解像度で再レンダリングします。
type Upscaler interface {
	Upscale(ctx context.Context, req domain.UpscaleRequest) (domain.EncodedPayload, error)
}

// ImageCacher は、画像をキャッシュするためのインターフェースです。
type ImageCacher interface {
	// Get は、指定されたキーに紐づくアイテムを取得します。
	Get(key string) (any, bool)
	// Set は、指定されたキーと値、有効期限でアイテムを保存します。
	Set(key string, value any, d time.Duration)
}
