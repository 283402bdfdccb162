package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/gemini-product-kit/pkg/generator"
	"github.com/shouni/gemini-product-kit/pkg/imgutil"
	"github.com/shouni/gemini-product-kit/pkg/retry"
	"gopkg.in/yaml.v3"
)

// DefaultEnvPrefix は環境変数による上書きの接頭辞です。
const DefaultEnvPrefix = "PRODUCTSHOT"

// Config は productshot の設定です。
// 優先順位: デフォルト値 → YAML ファイル → 環境変数
type Config struct {
	Models   ModelsConfig   `yaml:"models" env:"MODEL"`
	Image    ImageConfig    `yaml:"image" env:"IMAGE"`
	Retry    RetryConfig    `yaml:"retry" env:"RETRY"`
	HTTP     HTTPConfig     `yaml:"http" env:"HTTP"`
	Gemini   GeminiConfig   `yaml:"gemini" env:"GEMINI"`
	Cache    CacheConfig    `yaml:"cache" env:"CACHE"`
	Generate GenerateConfig `yaml:"generate" env:"GENERATE"`
	Log      LogConfig      `yaml:"log" env:"LOG"`
}

type ModelsConfig struct {
	Describe string `yaml:"describe" env:"DESCRIBE"`
	Generate string `yaml:"generate" env:"GENERATE"`
	Upscale  string `yaml:"upscale" env:"UPSCALE"`
}

// ImageConfig は送信前の正規化の設定です。
type ImageConfig struct {
	MaxWidth        int `yaml:"max_width" env:"MAX_WIDTH"`
	MaxHeight       int `yaml:"max_height" env:"MAX_HEIGHT"`
	Quality         int `yaml:"quality" env:"QUALITY"`
	MaxSourcePixels int `yaml:"max_source_pixels" env:"MAX_SOURCE_PIXELS"`
}

type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" env:"MAX_RETRIES"`
	InitialDelay time.Duration `yaml:"initial_delay" env:"INITIAL_DELAY"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// GeminiConfig は API 接続の設定です。API キーそのものは保持せず、読む環境変数名だけを持ちます。
type GeminiConfig struct {
	BaseURL    string   `yaml:"base_url" env:"BASE_URL"`
	APIKeyEnvs []string `yaml:"api_key_envs" env:"API_KEY_ENVS"`
}

// CacheConfig はリモート画像キャッシュの設定です。RedisAddr が空ならプロセス内キャッシュを使います。
type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl" env:"TTL"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB"`
}

type GenerateConfig struct {
	Variants  int    `yaml:"variants" env:"VARIANTS"`
	OutputDir string `yaml:"output_dir" env:"OUTPUT_DIR"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

// DefaultConfig はデフォルト値の設定を返します。
func DefaultConfig() *Config {
	policy := retry.DefaultPolicy()
	models := generator.DefaultModels()
	return &Config{
		Models: ModelsConfig{
			Describe: models.Describe,
			Generate: models.Generate,
			Upscale:  models.Upscale,
		},
		Image: ImageConfig{
			MaxWidth:        imgutil.DefaultMaxWidth,
			MaxHeight:       imgutil.DefaultMaxHeight,
			Quality:         imgutil.DefaultQuality,
			MaxSourcePixels: imgutil.DefaultMaxSourcePixels,
		},
		Retry: RetryConfig{
			MaxRetries:   policy.MaxRetries,
			InitialDelay: policy.InitialDelay,
		},
		HTTP:   HTTPConfig{Timeout: 30 * time.Second},
		Gemini: GeminiConfig{APIKeyEnvs: append([]string(nil), generator.DefaultAPIKeyEnvs...)},
		Cache:  CacheConfig{TTL: time.Hour},
		Generate: GenerateConfig{
			Variants:  4,
			OutputDir: "out",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Loader は設定を読み込みます。
type Loader struct {
	configPath string
	envPrefix  string
}

func NewLoader() *Loader {
	return &Loader{envPrefix: DefaultEnvPrefix}
}

func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load はデフォルト値に YAML ファイルと環境変数を順に重ねて検証します。
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}
	if err := setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Load は path の YAML ファイル（空なら省略）と PRODUCTSHOT_* 環境変数から設定を読み込みます。
func Load(path string) (*Config, error) {
	return NewLoader().WithConfigPath(path).Load()
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// setFieldsFromEnv は env タグをたどって PREFIX_SECTION_FIELD の環境変数を反映します。
func setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag

		if field.Kind() == reflect.Struct {
			if err := setFieldsFromEnv(field, key); err != nil {
				return err
			}
			continue
		}

		value := os.Getenv(key)
		if value == "" {
			continue
		}
		if err := setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field type %s", field.Kind())
	}
	return nil
}

// Validate は設定値の範囲を検証します。
func (c *Config) Validate() error {
	var errs []string
	if c.Image.MaxWidth <= 0 || c.Image.MaxHeight <= 0 {
		errs = append(errs, "image max width/height must be positive")
	}
	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		errs = append(errs, "image quality must be between 1 and 100")
	}
	if c.Image.MaxSourcePixels <= 0 {
		errs = append(errs, "image max_source_pixels must be positive")
	}
	if c.Retry.MaxRetries < 1 || c.Retry.MaxRetries > retry.MaxAttempts {
		errs = append(errs, fmt.Sprintf("retry max_retries must be between 1 and %d", retry.MaxAttempts))
	}
	if c.Retry.InitialDelay < 0 {
		errs = append(errs, "retry initial_delay must not be negative")
	}
	if c.Generate.Variants < 1 {
		errs = append(errs, "generate variants must be at least 1")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// NormalizeOptions は正規化設定を imgutil の形に変換します。
func (c *Config) NormalizeOptions() imgutil.NormalizeOptions {
	return imgutil.NormalizeOptions{
		MaxWidth:        c.Image.MaxWidth,
		MaxHeight:       c.Image.MaxHeight,
		Quality:         c.Image.Quality,
		MaxSourcePixels: c.Image.MaxSourcePixels,
	}
}

func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{MaxRetries: c.Retry.MaxRetries, InitialDelay: c.Retry.InitialDelay}
}

func (c *Config) GeneratorModels() generator.Models {
	return generator.Models{
		Describe: c.Models.Describe,
		Generate: c.Models.Generate,
		Upscale:  c.Models.Upscale,
	}
}

// LogLevel は slog のレベルを返します。Validate 済みの設定では失敗しません。
func (c *Config) LogLevel() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
