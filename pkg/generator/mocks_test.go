package generator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"google.golang.org/genai"
)

// --- Mocks ---

type generateCall struct {
	apiKey   string
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// mockContentGenerator は ContentGenerator を実装し、呼び出しを記録するのだ。
type mockContentGenerator struct {
	mu           sync.Mutex
	calls        []generateCall
	generateFunc func(call int, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockContentGenerator) factory() ClientFactory {
	return func(ctx context.Context, apiKey string) (ContentGenerator, error) {
		return &keyedGenerator{parent: m, apiKey: apiKey}, nil
	}
}

func (m *mockContentGenerator) Calls() []generateCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]generateCall(nil), m.calls...)
}

type keyedGenerator struct {
	parent *mockContentGenerator
	apiKey string
}

func (k *keyedGenerator) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	m := k.parent
	m.mu.Lock()
	m.calls = append(m.calls, generateCall{apiKey: k.apiKey, model: model, contents: contents, config: config})
	n := len(m.calls)
	m.mu.Unlock()

	if m.generateFunc != nil {
		return m.generateFunc(n, model, contents, config)
	}
	return imageResponse("image/png", []byte("fake")), nil
}

// mockCredentials は呼び出しごとに keys を順に返すのだ。最後のキーは使い回すのだ。
type mockCredentials struct {
	mu    sync.Mutex
	keys  []string
	err   error
	calls int
}

func (m *mockCredentials) APIKey(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	if len(m.keys) == 0 {
		return "", nil
	}
	i := min(m.calls-1, len(m.keys)-1)
	return m.keys[i], nil
}

// mockImageCore は ImageExecutor を関数フィールドで差し替えられるようにするのだ。
type mockImageCore struct {
	prepareFunc func(ctx context.Context, images []domain.SourceImage, aspectRatio string) ([]*genai.Part, error)
	payloadFunc func(p domain.EncodedPayload) (*genai.Part, error)
	executeFunc func(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

func (m *mockImageCore) PrepareImageParts(ctx context.Context, images []domain.SourceImage, aspectRatio string) ([]*genai.Part, error) {
	if m.prepareFunc != nil {
		return m.prepareFunc(ctx, images, aspectRatio)
	}
	parts := make([]*genai.Part, len(images))
	for i, img := range images {
		parts[i] = genai.NewPartFromBytes(img.Data, "image/jpeg")
	}
	return parts, nil
}

func (m *mockImageCore) PreparePayloadPart(p domain.EncodedPayload) (*genai.Part, error) {
	if m.payloadFunc != nil {
		return m.payloadFunc(p)
	}
	return (&GeminiImageCore{}).PreparePayloadPart(p)
}

func (m *mockImageCore) ExecuteRequest(ctx context.Context, model string, parts []*genai.Part, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if m.executeFunc != nil {
		return m.executeFunc(ctx, model, parts, config)
	}
	return imageResponse("image/png", []byte("fake")), nil
}

type mockReader struct {
	files  map[string][]byte
	listed []string
	opened int
}

func (m *mockReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	m.opened++
	data, ok := m.files[uri]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", uri)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockReader) List(ctx context.Context, uri string, fn func(string) error) error {
	for _, u := range m.listed {
		if !strings.HasPrefix(u, uri) {
			continue
		}
		if err := fn(u); err != nil {
			return err
		}
	}
	return nil
}

// mockHTTPClient は httpkit.ClientInterface を実装するのだ。
// blocked に含まれるホストは IsSafeURL で拒否されるのだ。
type mockHTTPClient struct {
	data    []byte
	err     error
	calls   int
	blocked []string
	checked []string
}

func (m *mockHTTPClient) IsSafeURL(urlStr string) (bool, error) {
	m.checked = append(m.checked, urlStr)
	for _, host := range m.blocked {
		if strings.Contains(urlStr, host) {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", host)
		}
	}
	return true, nil
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	return m.data, m.err
}

// インターフェースを満たすための空実装群なのだ
func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return nil, nil
}

func (m *mockHTTPClient) IsSecureServiceURL(serviceURL string) bool {
	return true
}

func (m *mockHTTPClient) DoRequest(req *http.Request) ([]byte, error) {
	return nil, nil
}

func (m *mockHTTPClient) FetchAndDecodeJSON(ctx context.Context, url string, v any) error {
	return nil
}

func (m *mockHTTPClient) PostJSONAndFetchBytes(ctx context.Context, url string, data any) ([]byte, error) {
	return nil, nil
}

func (m *mockHTTPClient) PostRawBodyAndFetchBytes(ctx context.Context, url string, body []byte, contentType string) ([]byte, error) {
	return nil, nil
}

type mockCache struct {
	data map[string]any
}

func (m *mockCache) Get(key string) (any, bool) {
	val, ok := m.data[key]
	return val, ok
}

func (m *mockCache) Set(key string, value any, d time.Duration) {
	m.data[key] = value
}

// --- Helpers ---

func imageResponse(mimeType string, data []byte) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Parts: []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}},
			},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content:      &genai.Content{Parts: []*genai.Part{{Text: text}}},
			FinishReason: genai.FinishReasonStop,
		}},
	}
}

// testPNG は w x h の単色 PNG を作るヘルパーなのだ。
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{0, 128, 255, 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("failed to encode test png: %v", err)
	}
	return buf.Bytes()
}

// promptOf は parts の最後のテキストパーツを返すのだ。
func promptOf(parts []*genai.Part) string {
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i].Text != "" {
			return parts[i].Text
		}
	}
	return ""
}
