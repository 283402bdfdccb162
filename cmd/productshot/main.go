// productshot は商品画像からスタイル付きの商品写真を生成する CLI です。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/shouni/gemini-product-kit/internal/cache"
	"github.com/shouni/gemini-product-kit/internal/config"
	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/gemini-product-kit/pkg/generator"
	"github.com/shouni/gemini-product-kit/pkg/retry"
	"github.com/shouni/gemini-product-kit/pkg/studio"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// stringList は繰り返し指定できるフラグです。
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type options struct {
	products    stringList
	style       string
	aspect      string
	lighting    string
	perspective string
	variants    int
	seed        int64
	prompt      string
	outDir      string
	upscale     int
	configPath  string
	envFile     string
}

func parseFlags(args []string) (*options, error) {
	defaults := domain.DefaultStyleOptions()
	opts := &options{}

	set := flag.NewFlagSet("productshot", flag.ContinueOnError)
	set.Var(&opts.products, "product", "商品画像 (ローカルパス / http(s):// / gs://)。複数指定可。gs://bucket/prefix/ で配下すべて")
	set.StringVar(&opts.style, "style", "", "スタイル参照画像")
	set.StringVar(&opts.aspect, "aspect", defaults.AspectRatio, "アスペクト比 ("+strings.Join(domain.AspectRatios, ", ")+")")
	set.StringVar(&opts.lighting, "lighting", defaults.Lighting, "ライティング")
	set.StringVar(&opts.perspective, "perspective", defaults.Perspective, "カメラアングル")
	set.IntVar(&opts.variants, "variants", 0, "生成するバリエーション数 (0 で設定ファイルの値)")
	set.Int64Var(&opts.seed, "seed", -1, "固定シード (負の値でランダム)。バリエーションごとに +1 される")
	set.StringVar(&opts.prompt, "prompt", "", "自動生成の代わりに使うプロンプト")
	set.StringVar(&opts.outDir, "out", "", "出力ディレクトリ (空で設定ファイルの値)")
	set.IntVar(&opts.upscale, "upscale", 0, "生成後に 4K アップスケールするバリエーション番号 (1 始まり)")
	set.StringVar(&opts.configPath, "config", "", "YAML 設定ファイル")
	set.StringVar(&opts.envFile, "env", ".env", "API キーを読み込む .env ファイル")

	if err := set.Parse(args); err != nil {
		return nil, err
	}
	if len(opts.products) == 0 {
		return nil, fmt.Errorf("-product を 1 つ以上指定してください")
	}
	if opts.variants < 0 || opts.upscale < 0 {
		return nil, fmt.Errorf("-variants と -upscale は 0 以上で指定してください")
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := godotenv.Load(opts.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "%s の読み込みに失敗しました: %v\n", opts.envFile, err)
		os.Exit(1)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		slog.Error("処理に失敗しました", "error", err)
		fmt.Fprintln(os.Stderr, studio.UserMessage(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts *options) error {
	loader, cleanup, err := newSourceLoader(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	credentials := generator.EnvCredentials{Keys: cfg.Gemini.APIKeyEnvs}
	core, err := generator.NewGeminiImageCore(
		generator.NewGenAIClientFactory(nil, cfg.Gemini.BaseURL),
		credentials,
		retry.NewExecutor(cfg.RetryPolicy()),
		cfg.NormalizeOptions(),
	)
	if err != nil {
		return err
	}
	gen, err := generator.NewGeminiGenerator(core, cfg.GeneratorModels())
	if err != nil {
		return err
	}

	variants := cfg.Generate.Variants
	if opts.variants > 0 {
		variants = opts.variants
	}
	outDir := cfg.Generate.OutputDir
	if opts.outDir != "" {
		outDir = opts.outDir
	}

	studioOpts := []studio.Option{studio.WithVariantCount(variants)}
	if opts.seed >= 0 {
		studioOpts = append(studioOpts, studio.WithSeed(opts.seed))
	}
	s, err := studio.New(gen, &envEntitlement{envFile: opts.envFile, credentials: credentials}, studioOpts...)
	if err != nil {
		return err
	}
	return session(ctx, s, loader, opts, outDir)
}

// session は読み込みから書き出しまでを Studio の操作として順に実行します。
func session(ctx context.Context, s *studio.Studio, loader *generator.SourceLoader, opts *options, outDir string) error {
	products, err := loader.LoadAll(ctx, opts.products)
	if err != nil {
		return err
	}
	s.AddProducts(products...)

	if err := s.SetOptions(domain.StyleOptions{
		AspectRatio: opts.aspect,
		Lighting:    opts.lighting,
		Perspective: opts.perspective,
	}); err != nil {
		return err
	}

	if opts.style != "" {
		styleImage, err := loader.Load(ctx, opts.style)
		if err != nil {
			return err
		}
		if err := s.SetStyleReference(ctx, styleImage); err != nil {
			return err
		}
	}
	if opts.prompt != "" {
		s.EditPrompt(opts.prompt)
	}
	slog.DebugContext(ctx, "プロンプト", "text", s.Prompt(), "overridden", s.PromptOverridden())

	result, err := s.Generate(ctx)
	if err != nil {
		return err
	}
	paths, err := writeImages(outDir, "variant", result.Images)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "バリエーションを書き出しました",
		"id", result.ID, "files", paths, "requested", result.Requested, "partial", result.Partial())

	if opts.upscale == 0 {
		return nil
	}
	if opts.upscale > len(result.Images) {
		return fmt.Errorf("-upscale %d: バリエーションは %d 件しかありません", opts.upscale, len(result.Images))
	}
	upscaled, err := s.Upscale(ctx, result.Images[opts.upscale-1].Payload)
	if err != nil {
		return err
	}
	path, err := writeImage(outDir, fmt.Sprintf("upscaled-%d", opts.upscale), upscaled)
	if err != nil {
		return err
	}
	slog.InfoContext(ctx, "アップスケール画像を書き出しました", "file", path)
	return nil
}

// newSourceLoader は参照先に必要な分だけリモートの読み込み手段を用意します。
func newSourceLoader(ctx context.Context, cfg *config.Config, opts *options) (*generator.SourceLoader, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				slog.Warn("リソースの解放に失敗しました", "error", err)
			}
		}
	}

	var imageCache generator.ImageCacher
	if cfg.Cache.RedisAddr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, rc.Close)
		imageCache = rc
	} else {
		imageCache = cache.NewMemory(cfg.Cache.TTL)
	}

	var reader remoteio.InputReader
	if usesGCS(append([]string{opts.style}, opts.products...)) {
		factory, err := gcsfactory.New(ctx)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, factory.Close)
		if reader, err = factory.InputReader(); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	loader := generator.NewSourceLoader(httpkit.New(cfg.HTTP.Timeout), reader, imageCache, cfg.Cache.TTL)
	return loader, cleanup, nil
}

func usesGCS(refs []string) bool {
	for _, ref := range refs {
		if remoteio.IsGCSURI(ref) {
			return true
		}
	}
	return false
}
