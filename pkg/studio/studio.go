package studio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/gemini-product-kit/pkg/generator"
	"github.com/shouni/gemini-product-kit/pkg/prompt"
)

// DefaultVariantCount は 1 回の生成で要求するバリエーション数です。
const DefaultVariantCount = 4

// Generator は Studio が利用するリモート機能の集合です。
// *generator.GeminiGenerator がこれを満たします。
type Generator interface {
	generator.ImageGenerator
	generator.StyleDescriber
	generator.Upscaler
}

// EntitlementProvider は有料モデルの利用権限の確認と、認証情報の再選択を担当します。
type EntitlementProvider interface {
	HasEntitlement(ctx context.Context) bool
	RequestEntitlementSelection(ctx context.Context) error
}

// Studio は 1 セッション分の編集状態です。
// 商品画像、スタイル参照、プロンプト、生成履歴を保持し、
// 状態が変わるたびにプロンプトを組み立て直します。
type Studio struct {
	gen         Generator
	entitlement EntitlementProvider
	variants    int
	seed        *int64
	now         func() time.Time
	newID       func() string

	mu          sync.Mutex
	products    []domain.SourceImage
	style       *domain.SourceImage
	styleGen    uint64
	description string
	describing  bool
	options     domain.StyleOptions
	editor      *prompt.Editor
	latest      *domain.GenerationResult
	history     []domain.GenerationResult

	upscaling atomic.Bool
}

// Option は Studio の設定を変更します。
type Option func(*Studio)

// WithVariantCount は 1 回の生成で要求するバリエーション数を指定します。
func WithVariantCount(n int) Option {
	return func(s *Studio) {
		if n > 0 {
			s.variants = n
		}
	}
}

// WithSeed は生成に使うシードを固定します。
func WithSeed(seed int64) Option {
	return func(s *Studio) {
		s.seed = &seed
	}
}

// WithClock は生成日時に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(s *Studio) {
		s.now = now
	}
}

// New は Studio を初期化します。entitlement は nil を許容し、その場合は権限確認を行いません。
func New(gen Generator, entitlement EntitlementProvider, opts ...Option) (*Studio, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	s := &Studio{
		gen:         gen,
		entitlement: entitlement,
		variants:    DefaultVariantCount,
		now:         time.Now,
		newID:       uuid.NewString,
		options:     domain.DefaultStyleOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.editor = prompt.NewEditor(s.promptInputLocked())
	return s, nil
}

// --- 商品画像 ---

// AddProducts は商品画像を末尾に追加します。
func (s *Studio) AddProducts(images ...domain.SourceImage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append(s.products, images...)
	s.refreshLocked()
}

// RemoveProduct は i 番目の商品画像を取り除きます。
func (s *Studio) RemoveProduct(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.products) {
		return fmt.Errorf("product index %d out of range [0, %d)", i, len(s.products))
	}
	s.products = slices.Delete(s.products, i, i+1)
	s.refreshLocked()
	return nil
}

func (s *Studio) Products() []domain.SourceImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.products)
}

// --- スタイル参照 ---

// SetStyleReference はスタイル参照画像を差し替えて解析します。
// 解析中はプロンプトがプレースホルダーになり、完了後に解析結果を反映します。
// 解析中に参照が差し替えられた場合、古い解析結果は捨てます。
func (s *Studio) SetStyleReference(ctx context.Context, img domain.SourceImage) error {
	s.mu.Lock()
	s.styleGen++
	token := s.styleGen
	s.style = &img
	s.description = ""
	s.describing = true
	s.refreshLocked()
	s.mu.Unlock()

	desc, err := s.gen.Describe(ctx, img)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.styleGen {
		slog.InfoContext(ctx, "スタイル参照が差し替えられたため解析結果を破棄します", "name", img.Name)
		return nil
	}
	s.describing = false
	if err != nil {
		s.description = ""
		s.refreshLocked()
		return fmt.Errorf("スタイル画像の解析に失敗しました: %w", err)
	}
	s.description = desc
	s.refreshLocked()
	slog.InfoContext(ctx, "スタイル画像を解析しました", "name", img.Name, "length", len(desc))
	return nil
}

// ClearStyleReference はスタイル参照と解析結果を取り除きます。進行中の解析結果も捨てます。
func (s *Studio) ClearStyleReference() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.styleGen++
	s.style = nil
	s.description = ""
	s.describing = false
	s.refreshLocked()
}

// StyleDescription は解析済みのスタイル説明と、解析中かどうかを返します。
func (s *Studio) StyleDescription() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.description, s.describing
}

// --- スタイル設定 ---

// SetOptions は選択肢を検証してから反映します。
func (s *Studio) SetOptions(opts domain.StyleOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = opts
	s.refreshLocked()
	return nil
}

func (s *Studio) Options() domain.StyleOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.options
}

// --- プロンプト ---

func (s *Studio) Prompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Text()
}

// EditPrompt は手動編集したテキストで固定します。ResetPrompt まで自動更新されません。
func (s *Studio) EditPrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Edit(text)
}

// ResetPrompt は手動編集を解除して自動生成のプロンプトに戻します。
func (s *Studio) ResetPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Reset()
}

func (s *Studio) PromptOverridden() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Overridden()
}

func (s *Studio) promptInputLocked() prompt.Input {
	return prompt.Input{
		ProductCount:     len(s.products),
		Options:          s.options,
		StyleDescription: s.description,
		DescribePending:  s.describing,
	}
}

func (s *Studio) refreshLocked() {
	s.editor.Update(s.promptInputLocked())
}

// --- 生成 ---

// Generate は現在の商品画像とプロンプトでバリエーションを生成します。
// 直前の結果は生成を始める前に履歴の先頭へ移ります。
func (s *Studio) Generate(ctx context.Context) (domain.GenerationResult, error) {
	s.mu.Lock()
	if len(s.products) == 0 {
		s.mu.Unlock()
		return domain.GenerationResult{}, domain.ErrNoProductImages
	}
	if s.latest != nil {
		s.history = append([]domain.GenerationResult{*s.latest}, s.history...)
		s.latest = nil
	}
	products := slices.Clone(s.products)
	req := domain.GenerationRequest{
		Prompt:       s.editor.Text(),
		AspectRatio:  s.options.AspectRatio,
		VariantCount: s.variants,
		Seed:         s.seed,
	}
	s.mu.Unlock()

	images, err := s.gen.Generate(ctx, products, req)
	if err != nil {
		return domain.GenerationResult{}, err
	}

	result := domain.GenerationResult{
		ID:          s.newID(),
		Images:      images,
		Prompt:      req.Prompt,
		AspectRatio: req.AspectRatio,
		Requested:   req.VariantCount,
		CreatedAt:   s.now(),
	}
	if result.Partial() {
		slog.WarnContext(ctx, "一部のバリエーションを生成できませんでした",
			"id", result.ID, "requested", result.Requested, "succeeded", len(result.Images))
	}

	s.mu.Lock()
	s.latest = &result
	s.mu.Unlock()
	return result, nil
}

// Latest は最新の生成結果を返します。
func (s *Studio) Latest() (domain.GenerationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return domain.GenerationResult{}, false
	}
	return *s.latest, true
}

// History は過去の生成結果を新しい順に返します。最新の結果は含みません。
func (s *Studio) History() []domain.GenerationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.history)
}

// --- アップスケール ---

// Upscale は生成済み画像を 4K にアップスケールします。同時に実行できるのは 1 件だけです。
// 権限がなければ先に認証情報の再選択を促し、そのまま試行します。
// 権限エラーで失敗した場合は再度再選択を促してからエラーを返します。
func (s *Studio) Upscale(ctx context.Context, payload domain.EncodedPayload) (domain.EncodedPayload, error) {
	if !s.upscaling.CompareAndSwap(false, true) {
		return "", domain.ErrUpscaleInProgress
	}
	defer s.upscaling.Store(false)

	if s.entitlement != nil && !s.entitlement.HasEntitlement(ctx) {
		if err := s.entitlement.RequestEntitlementSelection(ctx); err != nil {
			slog.WarnContext(ctx, "認証情報の再選択に失敗しました", "error", err)
		}
	}

	s.mu.Lock()
	req := domain.UpscaleRequest{
		Image:       payload,
		Prompt:      s.editor.Text(),
		AspectRatio: s.options.AspectRatio,
	}
	s.mu.Unlock()

	out, err := s.gen.Upscale(ctx, req)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, domain.ErrEntitlementDenied) && s.entitlement != nil {
		if selErr := s.entitlement.RequestEntitlementSelection(ctx); selErr != nil {
			slog.WarnContext(ctx, "認証情報の再選択に失敗しました", "error", selErr)
			return "", err
		}
		return "", fmt.Errorf("%w: %w", errSelectionRequested, err)
	}
	return "", err
}

// Upscaling はアップスケールが実行中かを返します。
func (s *Studio) Upscaling() bool {
	return s.upscaling.Load()
}
