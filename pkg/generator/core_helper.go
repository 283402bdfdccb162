package generator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/gemini-product-kit/pkg/imgutil"
	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
)

// PrepareImageParts は各画像を正規化して JPEG の InlineData パーツにします。
// 正規化は並行して行い、結果は入力順に並びます。
func (c *GeminiImageCore) PrepareImageParts(ctx context.Context, images []domain.SourceImage, aspectRatio string) ([]*genai.Part, error) {
	opts := c.normalize
	opts.AspectRatio = aspectRatio

	parts := make([]*genai.Part, len(images))
	g, ctx := errgroup.WithContext(ctx)
	for i, img := range images {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := imgutil.Normalize(img.Data, opts)
			if err != nil {
				return fmt.Errorf("画像 %q の正規化に失敗しました: %w", img.Name, err)
			}
			parts[i] = genai.NewPartFromBytes(n.Data, n.MimeType)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return parts, nil
}

// PreparePayloadPart は data URI をデコードして InlineData パーツにします。
func (c *GeminiImageCore) PreparePayloadPart(p domain.EncodedPayload) (*genai.Part, error) {
	data, mimeType, err := imgutil.DecodeDataURI(p)
	if err != nil {
		return nil, err
	}
	return genai.NewPartFromBytes(data, mimeType), nil
}

// detectImageMIME はバイト列の MIME タイプを判定し、画像でなければエラーを返します。
func detectImageMIME(data []byte) (string, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("%w: detected %s", domain.ErrImageDecode, mimeType)
	}
	return mimeType, nil
}

// parseToResponse は最初の候補から最初の画像パーツを取り出します。
func parseToResponse(resp *genai.GenerateContentResponse) (*ImageOutput, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: empty response", domain.ErrNoImageReturned)
	}
	candidate := resp.Candidates[0]
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part != nil && part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &ImageOutput{
					Data:     part.InlineData.Data,
					MimeType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	// 安全フィルター等によるブロックの確認
	if candidate.FinishReason != "" && candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
		return nil, fmt.Errorf("%w: finish reason %s", domain.ErrNoImageReturned, candidate.FinishReason)
	}
	return nil, domain.ErrNoImageReturned
}

// responseText は最初の候補のテキストパーツを連結して返します。
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		b.WriteString(part.Text)
	}
	return b.String()
}
