package generator

const (
	DefaultDescribeModel = "gemini-2.5-flash"
	DefaultGenerateModel = "gemini-2.5-flash-image"
	DefaultUpscaleModel  = "gemini-3-pro-image-preview"

	// UpscaleImageSize はアップスケール時に要求する解像度です。
	UpscaleImageSize = "4K"

	cacheKeySource = "source:"
)

// Models は用途ごとのモデル名です。
type Models struct {
	Describe string
	Generate string
	Upscale  string
}

// DefaultModels はデフォルトのモデル構成を返します。
func DefaultModels() Models {
	return Models{
		Describe: DefaultDescribeModel,
		Generate: DefaultGenerateModel,
		Upscale:  DefaultUpscaleModel,
	}
}

// withDefaults は空のモデル名をデフォルトで補います。
func (m Models) withDefaults() Models {
	d := DefaultModels()
	if m.Describe == "" {
		m.Describe = d.Describe
	}
	if m.Generate == "" {
		m.Generate = d.Generate
	}
	if m.Upscale == "" {
		m.Upscale = d.Upscale
	}
	return m
}

// ImageOutput は Core の内部解析結果
type ImageOutput struct {
	Data     []byte
	MimeType string
}
