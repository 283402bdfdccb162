package generator

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// NewGenAIClientFactory は Gemini API バックエンドの genai クライアントを組み立てる ClientFactory を返します。
// httpClient が nil の場合は SDK のデフォルトを、baseURL が空の場合は既定のエンドポイントを使います。
func NewGenAIClientFactory(httpClient *http.Client, baseURL string) ClientFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:      apiKey,
			Backend:     genai.BackendGeminiAPI,
			HTTPClient:  httpClient,
			HTTPOptions: genai.HTTPOptions{BaseURL: baseURL},
		})
		if err != nil {
			return nil, fmt.Errorf("genai クライアントの初期化に失敗しました: %w", err)
		}
		return client.Models, nil
	}
}
