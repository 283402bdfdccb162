package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/gemini-product-kit/pkg/imgutil"
	"github.com/shouni/gemini-product-kit/pkg/retry"
	"google.golang.org/genai"
)

// GeminiImageCore は画像パーツの準備と、再試行付きのリクエスト実行を担う基盤クラスです。
// クライアントを保持せず、試行のたびに認証情報を解決してクライアントを組み立てます。
type GeminiImageCore struct {
	factory     ClientFactory
	credentials CredentialProvider
	executor    *retry.Executor
	normalize   imgutil.NormalizeOptions
}

// NewGeminiImageCore は依存関係を注入して GeminiImageCore を初期化します。
// normalize の AspectRatio は呼び出しごとに上書きされます。
func NewGeminiImageCore(factory ClientFactory, credentials CredentialProvider, executor *retry.Executor, normalize imgutil.NormalizeOptions) (*GeminiImageCore, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credentials is required")
	}
	if executor == nil {
		executor = retry.NewExecutor(retry.DefaultPolicy())
	}

	return &GeminiImageCore{
		factory:     factory,
		credentials: credentials,
		executor:    executor,
		normalize:   normalize,
	}, nil
}

// ExecuteRequest は parts を 1 つのユーザーコンテンツとして送信します。
// 各試行で API キーを取り直すため、途中で認証情報が切り替わってもその次の試行から反映されます。
func (c *GeminiImageCore) ExecuteRequest(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	return retry.Execute(ctx, c.executor, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		client, err := c.newClient(ctx)
		if err != nil {
			return nil, err
		}
		return client.GenerateContent(ctx, model, contents, config)
	})
}

func (c *GeminiImageCore) newClient(ctx context.Context) (ContentGenerator, error) {
	apiKey, err := c.credentials.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEntitlementDenied, err)
	}
	if apiKey == "" {
		// キーの再選択が必要なので再試行せずに権限エラーとして扱う
		return nil, fmt.Errorf("%w: %w", domain.ErrEntitlementDenied, domain.ErrMissingCredential)
	}

	client, err := c.factory(ctx, apiKey)
	if err != nil {
		slog.WarnContext(ctx, "クライアントの生成に失敗しました", "error", err)
		return nil, fmt.Errorf("クライアント生成エラー: %w", err)
	}
	return client, nil
}
