package generator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// SourceLoader はローカルパス・http(s)・gs:// から元画像を読み込みます。
// リモートから取得したバイト列はキャッシュされます。
type SourceLoader struct {
	httpClient httpkit.ClientInterface
	reader     remoteio.InputReader
	cache      ImageCacher
	cacheTTL   time.Duration
}

// NewSourceLoader は SourceLoader を生成します。
// httpClient が nil の場合 http(s) は読み込めません。reader が nil の場合は
// ローカルファイルのみを扱う remoteio.UniversalInputReader を使います。cache は nil を許容します。
func NewSourceLoader(httpClient httpkit.ClientInterface, reader remoteio.InputReader, cache ImageCacher, cacheTTL time.Duration) *SourceLoader {
	if reader == nil {
		reader = remoteio.NewUniversalInputReader(nil, nil)
	}
	return &SourceLoader{
		httpClient: httpClient,
		reader:     reader,
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

// Load は ref の画像を読み込み、MIME タイプを判定します。画像でなければ ErrImageDecode を返します。
func (l *SourceLoader) Load(ctx context.Context, ref string) (domain.SourceImage, error) {
	var (
		data []byte
		name string
		err  error
	)
	if isRemote(ref) {
		data, err = l.fetchRemote(ctx, ref)
		name = remoteName(ref)
	} else {
		data, err = l.read(ctx, ref)
		name = filepath.Base(ref)
	}
	if err != nil {
		return domain.SourceImage{}, fmt.Errorf("画像の読み込みに失敗しました (%s): %w", ref, err)
	}

	mimeType, err := detectImageMIME(data)
	if err != nil {
		return domain.SourceImage{}, fmt.Errorf("%s: %w", ref, err)
	}
	return domain.SourceImage{Name: name, Data: data, MimeType: mimeType}, nil
}

// LoadAll は refs を順に読み込みます。1 件でも失敗したらエラーを返します。
// "/" で終わる gs:// の参照はそのプレフィックス配下のオブジェクトすべてに、
// "/" で終わるローカルパスはそのディレクトリ直下のファイルに展開されます。
func (l *SourceLoader) LoadAll(ctx context.Context, refs []string) ([]domain.SourceImage, error) {
	expanded, err := l.expand(ctx, refs)
	if err != nil {
		return nil, err
	}
	images := make([]domain.SourceImage, 0, len(expanded))
	for _, ref := range expanded {
		img, err := l.Load(ctx, ref)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func (l *SourceLoader) expand(ctx context.Context, refs []string) ([]string, error) {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if isHTTP(ref) || !strings.HasSuffix(ref, "/") {
			out = append(out, ref)
			continue
		}
		err := l.reader.List(ctx, ref, func(uri string) error {
			out = append(out, uri)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s の展開に失敗しました: %w", ref, err)
		}
	}
	return out, nil
}

func (l *SourceLoader) fetchRemote(ctx context.Context, ref string) ([]byte, error) {
	cacheKey := cacheKeySource + ref
	if l.cache != nil {
		if cached, found := l.cache.Get(cacheKey); found {
			if data, ok := cached.([]byte); ok {
				return data, nil
			}
			slog.WarnContext(ctx, "キャッシュデータが不正な型です", "url", ref, "type", fmt.Sprintf("%T", cached))
		}
	}

	if err := checkSourceURL(l.httpClient, ref); err != nil {
		return nil, fmt.Errorf("安全ではないURLが指定されました: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if remoteio.IsGCSURI(ref) {
		data, err = l.read(ctx, ref)
	} else {
		data, err = l.httpClient.FetchBytes(ctx, ref)
	}
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		l.cache.Set(cacheKey, data, l.cacheTTL)
	}
	return data, nil
}

func (l *SourceLoader) read(ctx context.Context, ref string) ([]byte, error) {
	rc, err := l.reader.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func isHTTP(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}

func isRemote(ref string) bool {
	return isHTTP(ref) || remoteio.IsGCSURI(ref)
}

func remoteName(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Path == "" {
		return ref
	}
	return path.Base(u.Path)
}
