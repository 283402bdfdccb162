package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/gemini-product-kit/pkg/imgutil"
	"github.com/shouni/gemini-product-kit/pkg/prompt"
	"github.com/shouni/gemini-product-kit/pkg/utils"
	"google.golang.org/genai"
)

// GeminiGenerator は、バリエーション生成(Generate)・スタイル解析(Describe)・
// アップスケール(Upscale)を担当する統合ジェネレーターです。
type GeminiGenerator struct {
	core   ImageExecutor
	models Models
}

// NewGeminiGenerator は GeminiGenerator を初期化するのだ。
func NewGeminiGenerator(core ImageExecutor, models Models) (*GeminiGenerator, error) {
	if core == nil {
		return nil, fmt.Errorf("core (ImageExecutor) is required")
	}
	return &GeminiGenerator{
		core:   core,
		models: models.withDefaults(),
	}, nil
}

// Generate は商品画像を一度だけ正規化し、バリエーションを 1 件ずつ順番に生成するのだ。
// 一部のバリエーションが失敗しても、1 件でも得られれば成功として返すのだ。
// 権限エラーとコンテキストの終了だけは残りを打ち切って返すのだ。
func (g *GeminiGenerator) Generate(ctx context.Context, images []domain.SourceImage, req domain.GenerationRequest) ([]domain.ImageResponse, error) {
	if len(images) == 0 {
		return nil, domain.ErrNoSourceImages
	}
	count := max(req.VariantCount, 1)

	imageParts, err := g.core.PrepareImageParts(ctx, images, req.AspectRatio)
	if err != nil {
		return nil, fmt.Errorf("商品画像の準備に失敗しました: %w", err)
	}

	slog.InfoContext(ctx, "バリエーション生成を開始します",
		"model", g.models.Generate, "images", len(images), "variants", count, "aspect_ratio", req.AspectRatio)

	results := make([]domain.ImageResponse, 0, count)
	var lastErr error
	for i := range count {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("バリエーション生成が中断されました: %w", err)
		}

		seed := utils.VariantSeed(req.Seed, i)
		parts := append(slices.Clone(imageParts), genai.NewPartFromText(prompt.VariantPrompt(req.Prompt, i)))
		config := &genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityImage)},
			Seed:               utils.SeedToPtrInt32(seed),
		}
		if req.AspectRatio != "" {
			config.ImageConfig = &genai.ImageConfig{AspectRatio: req.AspectRatio}
		}

		resp, err := g.core.ExecuteRequest(ctx, g.models.Generate, parts, config)
		if err != nil {
			if errors.Is(err, domain.ErrEntitlementDenied) || ctx.Err() != nil {
				return nil, fmt.Errorf("バリエーション #%d の生成に失敗しました: %w", i+1, err)
			}
			slog.WarnContext(ctx, "バリエーションの生成に失敗したためスキップします", "variant", i+1, "error", err)
			lastErr = err
			continue
		}

		out, err := parseToResponse(resp)
		if err != nil {
			slog.WarnContext(ctx, "画像が返されなかったためスキップします",
				"variant", i+1, "error", err, "response_text", responseText(resp))
			lastErr = err
			continue
		}
		results = append(results, domain.ImageResponse{
			Payload:  imgutil.EncodeDataURI(out.Data, out.MimeType),
			UsedSeed: seed,
		})
	}

	if len(results) == 0 {
		return nil, errors.Join(domain.ErrNoImagesGenerated, lastErr)
	}
	slog.InfoContext(ctx, "バリエーション生成が完了しました", "requested", count, "succeeded", len(results))
	return results, nil
}

// Describe はスタイル参照画像を解析し、再現用のスタイル説明を返すのだ。
// 参照画像はレターボックスせず縮小だけ行うのだ。
func (g *GeminiGenerator) Describe(ctx context.Context, img domain.SourceImage) (string, error) {
	parts, err := g.core.PrepareImageParts(ctx, []domain.SourceImage{img}, "")
	if err != nil {
		return "", fmt.Errorf("スタイル画像の準備に失敗しました: %w", err)
	}
	parts = append(parts, genai.NewPartFromText(prompt.StyleAnalysisInstruction))

	resp, err := g.core.ExecuteRequest(ctx, g.models.Describe, parts, nil)
	if err != nil {
		return "", fmt.Errorf("スタイル画像の解析に失敗しました: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", domain.ErrEmptyDescription
	}
	return text, nil
}

// Upscale は生成済み画像を Pro モデルで 4K に再レンダリングするのだ。
func (g *GeminiGenerator) Upscale(ctx context.Context, req domain.UpscaleRequest) (domain.EncodedPayload, error) {
	imagePart, err := g.core.PreparePayloadPart(req.Image)
	if err != nil {
		return "", fmt.Errorf("アップスケール対象の画像が不正です: %w", err)
	}
	parts := []*genai.Part{imagePart, genai.NewPartFromText(prompt.UpscalePrompt(req.Prompt))}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
		ImageConfig: &genai.ImageConfig{
			ImageSize:   UpscaleImageSize,
			AspectRatio: req.AspectRatio,
		},
	}

	slog.InfoContext(ctx, "アップスケールを開始します", "model", g.models.Upscale, "aspect_ratio", req.AspectRatio)
	resp, err := g.core.ExecuteRequest(ctx, g.models.Upscale, parts, config)
	if err != nil {
		return "", fmt.Errorf("アップスケールに失敗しました: %w", err)
	}

	out, err := parseToResponse(resp)
	if err != nil {
		slog.WarnContext(ctx, "アップスケール結果に画像が含まれていません", "response_text", responseText(resp))
		return "", err
	}
	return imgutil.EncodeDataURI(out.Data, out.MimeType), nil
}
