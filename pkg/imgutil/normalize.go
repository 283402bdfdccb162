package imgutil

import (
	"fmt"
	"image"
	"image/draw"
	"math"
	"strconv"
	"strings"

	"github.com/shouni/gemini-product-kit/pkg/domain"

	xdraw "golang.org/x/image/draw"
)

const (
	DefaultMaxWidth  = 1024
	DefaultMaxHeight = 1024
	DefaultQuality   = 90

	// DefaultMaxSourcePixels はデコード前に許容する元画像の最大ピクセル数です。
	DefaultMaxSourcePixels = 50_000_000

	// MaxCanvasPixels はレターボックス後のキャンバスに許容する最大ピクセル数です。
	MaxCanvasPixels = 64 * 1024 * 1024

	normalizedMimeType = "image/jpeg"
)

// NormalizeOptions は正規化の上限寸法・目標アスペクト比・JPEG 品質を指定します。
// ゼロ値の項目はデフォルト値で補われます。
type NormalizeOptions struct {
	MaxWidth    int
	MaxHeight   int
	AspectRatio string // "W:H"。空ならレターボックスしない
	Quality     int

	// MaxSourcePixels を超える元画像はピクセルを展開する前に拒否する
	MaxSourcePixels int
}

func (o NormalizeOptions) withDefaults() NormalizeOptions {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Quality <= 0 {
		o.Quality = DefaultQuality
	}
	if o.MaxSourcePixels <= 0 {
		o.MaxSourcePixels = DefaultMaxSourcePixels
	}
	return o
}

// Normalized は正規化済みの JPEG 画像とその配置情報です。
type Normalized struct {
	Data     []byte
	MimeType string

	// キャンバス寸法
	Width  int
	Height int

	// キャンバス上に描画された縮小画像の寸法と左上オフセット
	ScaledWidth  int
	ScaledHeight int
	OffsetX      int
	OffsetY      int
}

// Payload は正規化画像を data URI に変換します。
func (n *Normalized) Payload() domain.EncodedPayload {
	return EncodeDataURI(n.Data, n.MimeType)
}

// Normalize は画像を上限寸法内に縮小し、目標アスペクト比が指定されていれば
// 白背景のキャンバス中央に配置して JPEG に再エンコードします。
func Normalize(data []byte, opts NormalizeOptions) (*Normalized, error) {
	opts = opts.withDefaults()

	ratio := 0.0
	if opts.AspectRatio != "" {
		r, err := ParseAspectRatio(opts.AspectRatio)
		if err != nil {
			return nil, err
		}
		ratio = r
	}

	cfg, _, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(opts.MaxSourcePixels) {
		return nil, fmt.Errorf("%w: source %dx%d exceeds %d pixels", domain.ErrImageDecode, cfg.Width, cfg.Height, opts.MaxSourcePixels)
	}

	src, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	bounds := src.Bounds()

	sw, sh := ScaleDimensions(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)
	cw, ch, dx, dy := sw, sh, 0, 0
	if ratio > 0 {
		cw, ch, dx, dy = LetterboxCanvas(sw, sh, ratio)
	}

	canvas, err := newCanvas(cw, ch)
	if err != nil {
		return nil, err
	}
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)
	xdraw.CatmullRom.Scale(canvas, image.Rect(dx, dy, dx+sw, dy+sh), src, bounds, xdraw.Over, nil)

	out, err := EncodeJPEG(canvas, opts.Quality)
	if err != nil {
		return nil, err
	}

	return &Normalized{
		Data:         out,
		MimeType:     normalizedMimeType,
		Width:        cw,
		Height:       ch,
		ScaledWidth:  sw,
		ScaledHeight: sh,
		OffsetX:      dx,
		OffsetY:      dy,
	}, nil
}

// ScaleDimensions は元のアスペクト比を保ったまま maxW x maxH に収まる寸法を返します。
// 横長（または正方形）は幅基準、縦長は高さ基準で縮小し、拡大は行いません。
func ScaleDimensions(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	sw, sh := w, h
	if w >= h {
		if w > maxW {
			sw, sh = maxW, roundInt(float64(h)*float64(maxW)/float64(w))
		}
	} else if h > maxH {
		sw, sh = roundInt(float64(w)*float64(maxH)/float64(h)), maxH
	}

	// maxW と maxH が異なる場合、基準でない側がまだ上限を超えることがある
	if sh > maxH {
		sw, sh = roundInt(float64(w)*float64(maxH)/float64(h)), maxH
	}
	if sw > maxW {
		sw, sh = maxW, roundInt(float64(h)*float64(maxW)/float64(w))
	}
	return max(sw, 1), max(sh, 1)
}

// ParseAspectRatio は "W:H" 形式のアスペクト比を W/H の値に変換します。
func ParseAspectRatio(s string) (float64, error) {
	ws, hs, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAspectRatio, s)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAspectRatio, s)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAspectRatio, s)
	}
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAspectRatio, s)
	}
	return w / h, nil
}

// LetterboxCanvas は sw x sh の画像を内包し、幅/高さが ratio になるキャンバス寸法と
// 画像を中央に置くためのオフセットを返します。
func LetterboxCanvas(sw, sh int, ratio float64) (cw, ch, dx, dy int) {
	if float64(sw)/float64(sh) > ratio {
		cw, ch = sw, roundInt(float64(sw)/ratio)
	} else {
		cw, ch = roundInt(float64(sh)*ratio), sh
	}
	// 丸めでわずかに下回った場合でも画像がはみ出さないようにする
	cw, ch = max(cw, sw), max(ch, sh)
	return cw, ch, (cw - sw) / 2, (ch - sh) / 2
}

func newCanvas(w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d", domain.ErrRenderSurface, w, h)
	}
	if int64(w)*int64(h) > MaxCanvasPixels {
		return nil, fmt.Errorf("%w: canvas %dx%d exceeds %d pixels", domain.ErrRenderSurface, w, h, MaxCanvasPixels)
	}
	return image.NewRGBA(image.Rect(0, 0, w, h)), nil
}

func roundInt(v float64) int {
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Round(v))
}
