package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shouni/gemini-product-kit/pkg/generator"
	"github.com/shouni/gemini-product-kit/pkg/imgutil"
	"github.com/shouni/gemini-product-kit/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "productshot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, generator.DefaultModels(), cfg.GeneratorModels())
	assert.Equal(t, imgutil.NormalizeOptions{MaxWidth: 1024, MaxHeight: 1024, Quality: 90, MaxSourcePixels: imgutil.DefaultMaxSourcePixels}, cfg.NormalizeOptions())
	assert.Equal(t, retry.DefaultPolicy(), cfg.RetryPolicy())
	assert.Equal(t, generator.DefaultAPIKeyEnvs, cfg.Gemini.APIKeyEnvs)
	assert.Equal(t, 4, cfg.Generate.Variants)
	assert.Empty(t, cfg.Cache.RedisAddr)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())
}

func TestLoad_Precedence(t *testing.T) {
	path := writeConfig(t, `
models:
  upscale: custom-upscaler
image:
  max_width: 512
  quality: 80
retry:
  initial_delay: 250ms
cache:
  ttl: 10m
  redis_addr: localhost:6379
generate:
  variants: 2
log:
  level: debug
`)
	t.Setenv("PRODUCTSHOT_IMAGE_QUALITY", "70")
	t.Setenv("PRODUCTSHOT_RETRY_MAX_RETRIES", "5")
	t.Setenv("PRODUCTSHOT_GEMINI_API_KEY_ENVS", "MY_KEY, FALLBACK_KEY")

	cfg, err := Load(path)
	require.NoError(t, err)

	t.Run("YAMLがデフォルトを上書きするのだ", func(t *testing.T) {
		assert.Equal(t, "custom-upscaler", cfg.Models.Upscale)
		assert.Equal(t, generator.DefaultGenerateModel, cfg.Models.Generate)
		assert.Equal(t, 512, cfg.Image.MaxWidth)
		assert.Equal(t, 1024, cfg.Image.MaxHeight)
		assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialDelay)
		assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
		assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
		assert.Equal(t, 2, cfg.Generate.Variants)
		assert.Equal(t, slog.LevelDebug, cfg.LogLevel())
	})

	t.Run("環境変数がYAMLを上書きするのだ", func(t *testing.T) {
		assert.Equal(t, 70, cfg.Image.Quality)
		assert.Equal(t, 5, cfg.Retry.MaxRetries)
		assert.Equal(t, []string{"MY_KEY", "FALLBACK_KEY"}, cfg.Gemini.APIKeyEnvs)
	})
}

func TestLoad_Errors(t *testing.T) {
	t.Run("存在しないファイルはエラーなのだ", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("壊れたYAMLはエラーなのだ", func(t *testing.T) {
		_, err := Load(writeConfig(t, "image: [unterminated"))
		assert.ErrorContains(t, err, "failed to parse config file")
	})

	t.Run("数値でない環境変数はエラーなのだ", func(t *testing.T) {
		t.Setenv("PRODUCTSHOT_GENERATE_VARIANTS", "many")
		_, err := Load("")
		assert.ErrorContains(t, err, "PRODUCTSHOT_GENERATE_VARIANTS")
	})

	t.Run("範囲外の値は検証で弾くのだ", func(t *testing.T) {
		_, err := Load(writeConfig(t, "image:\n  quality: 0\ngenerate:\n  variants: 0\n"))
		assert.ErrorContains(t, err, "image quality must be between 1 and 100")
		assert.ErrorContains(t, err, "generate variants must be at least 1")
	})

	t.Run("再試行回数が上限を超えたらエラーなのだ", func(t *testing.T) {
		t.Setenv("PRODUCTSHOT_RETRY_MAX_RETRIES", "64")
		_, err := Load("")
		assert.ErrorContains(t, err, "retry max_retries must be between 1 and 10")
	})

	t.Run("元画像のピクセル上限は正の値なのだ", func(t *testing.T) {
		_, err := Load(writeConfig(t, "image:\n  max_source_pixels: -1\n"))
		assert.ErrorContains(t, err, "image max_source_pixels must be positive")
	})

	t.Run("未知のログレベルはエラーなのだ", func(t *testing.T) {
		t.Setenv("PRODUCTSHOT_LOG_LEVEL", "verbose")
		_, err := Load("")
		assert.ErrorContains(t, err, `unknown log level "verbose"`)
	})
}

func TestLoader_WithEnvPrefix(t *testing.T) {
	t.Setenv("SHOT_GEMINI_BASE_URL", "http://localhost:8080")

	cfg, err := NewLoader().WithEnvPrefix("SHOT").Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.Gemini.BaseURL)
}
