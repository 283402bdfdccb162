package studio

import (
	"context"
	"sync"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/gemini-product-kit/pkg/utils"
)

type generateCall struct {
	images []domain.SourceImage
	req    domain.GenerationRequest
}

// mockGenerator は Generator を関数フィールドで差し替えられるようにするのだ。
type mockGenerator struct {
	mu            sync.Mutex
	generateCalls []generateCall
	upscaleCalls  []domain.UpscaleRequest

	generateFunc func(ctx context.Context, images []domain.SourceImage, req domain.GenerationRequest) ([]domain.ImageResponse, error)
	describeFunc func(ctx context.Context, img domain.SourceImage) (string, error)
	upscaleFunc  func(ctx context.Context, req domain.UpscaleRequest) (domain.EncodedPayload, error)
}

func (m *mockGenerator) Generate(ctx context.Context, images []domain.SourceImage, req domain.GenerationRequest) ([]domain.ImageResponse, error) {
	m.mu.Lock()
	m.generateCalls = append(m.generateCalls, generateCall{images: images, req: req})
	m.mu.Unlock()
	if m.generateFunc != nil {
		return m.generateFunc(ctx, images, req)
	}
	out := make([]domain.ImageResponse, req.VariantCount)
	for i := range out {
		out[i] = domain.ImageResponse{Payload: "data:image/png;base64,AA==", UsedSeed: utils.VariantSeed(req.Seed, i)}
	}
	return out, nil
}

func (m *mockGenerator) Describe(ctx context.Context, img domain.SourceImage) (string, error) {
	if m.describeFunc != nil {
		return m.describeFunc(ctx, img)
	}
	return "Soft window light from the left.", nil
}

func (m *mockGenerator) Upscale(ctx context.Context, req domain.UpscaleRequest) (domain.EncodedPayload, error) {
	m.mu.Lock()
	m.upscaleCalls = append(m.upscaleCalls, req)
	m.mu.Unlock()
	if m.upscaleFunc != nil {
		return m.upscaleFunc(ctx, req)
	}
	return "data:image/png;base64,BB==", nil
}

type mockEntitlement struct {
	mu         sync.Mutex
	has        bool
	selectErr  error
	selections int
}

func (m *mockEntitlement) HasEntitlement(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.has
}

func (m *mockEntitlement) RequestEntitlementSelection(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections++
	return m.selectErr
}

func (m *mockEntitlement) Selections() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selections
}
