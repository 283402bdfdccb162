package prompt

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-product-kit/pkg/domain"
)

// AnalyzingPlaceholder はスタイル解析中に返す固定文言です。
const AnalyzingPlaceholder = "Analyzing style image to generate a detailed prompt..."

const strictRules = `IMPORTANT RULES:
- The product(s) themselves MUST NOT be altered. Maintain the original product's shape, form, and identity.
- The product's colors, labels, logos, and any text MUST remain exactly as they appear in the original photo. Do NOT change them.
- The output MUST be a clean, high-resolution photograph suitable for professional e-commerce use.`

const replicationInstruction = "- INSTRUCTION: Strictly adhere to the analyzed Camera Angle, Lighting Configuration, and Color Palette described above. Replicate the exact photographic atmosphere, including light direction and color grading."

// Input はプロンプトを決定する入力一式です。
type Input struct {
	ProductCount     int
	Options          domain.StyleOptions
	StyleDescription string
	DescribePending  bool
}

// Compose は入力からプロンプトを組み立てます。同じ入力には常に同じ文字列を返します。
// スタイル解析中は部分的な記述を混ぜず、AnalyzingPlaceholder を返します。
func Compose(in Input) string {
	if in.DescribePending {
		return AnalyzingPlaceholder
	}

	var b strings.Builder
	b.WriteString(coreTask(in.ProductCount))
	b.WriteString("\n\n")
	b.WriteString(strictRules)
	b.WriteString("\n\n")

	b.WriteString("STYLING:\n")
	fmt.Fprintf(&b, "- Aspect Ratio: %s\n", in.Options.AspectRatio)
	fmt.Fprintf(&b, "- Lighting: %s\n", in.Options.Lighting)
	if in.StyleDescription != "" {
		// 解析結果がある場合はカメラアングルの指定より優先する
		fmt.Fprintf(&b, "- Visual Style Replication (Color, Light, Angle): \"%s\".\n", flatten(in.StyleDescription))
		b.WriteString(replicationInstruction)
	} else {
		fmt.Fprintf(&b, "- Camera Angle: %s", in.Options.Perspective)
	}
	return b.String()
}

func coreTask(productCount int) string {
	if productCount > 1 {
		return fmt.Sprintf("Generate a single, professional, hyper-realistic, and photorealistic photograph featuring a composition of all %d provided product images. Arrange them naturally and aesthetically in the scene.", productCount)
	}
	return "Generate a single, professional, hyper-realistic, and photorealistic product photograph based on the provided product image."
}

func flatten(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// VariantPrompt は i 番目（0 始まり）のバリエーション用に区別用の接尾辞を付けます。
func VariantPrompt(p string, i int) string {
	return fmt.Sprintf("%s\n\n(Artistic variation #%d)", p, i+1)
}

// StyleAnalysisInstruction はスタイル参照画像の解析指示です。
const StyleAnalysisInstruction = `Analyze the provided image with technical precision, focusing on these key aspects:
1. **Camera Angle & Perspective**: Describe the exact camera position (e.g., 'low-angle looking up', 'isometric 45-degree', 'flat lay top-down'). Mention focal length appearance if discernable.
2. **Lighting Configuration**: Identify the lighting setup (e.g., 'single softbox from left', 'hard sunlight with deep shadows', 'rim lighting', 'diffused window light'). Describe the quality of light (hard/soft), direction, and contrast ratio.
3. **Color Palette & Tones**: List the dominant colors, specific hex codes or names if possible, and accent tones. Describe the color temperature (warm/cool) and saturation levels (vibrant/muted/monochromatic).
4. **Material & Texture Rendering**: How are surfaces rendered? (e.g., 'glossy reflections', 'matte finish', 'high detail texture').

Synthesize this into a cohesive style description that instructs an AI to replicate this exact photographic look, lighting, and color grading.`

const upscaleTemplate = `Perform a high-fidelity upscale of this image to 4K resolution using the Pro model.

CRITICAL INSTRUCTIONS:
1. **TEXT & LABEL ACCURACY**: Ensure all product labels, brand names, logos, and text are perfectly sharp, legible, and have ZERO DISTORTION. This is a product photo, so branding MUST be flawless.
2. **RESOLUTION**: The output must be crystal clear 4K quality.
3. **FIDELITY**: Maintain the exact composition, lighting, shadows, and aesthetic of the input image. Do not change the scene content or product details, only enhance the quality and sharpness.
4. **STYLE**: Photorealistic, professional commercial photography.

Original Generation Context: %s`

// UpscalePrompt は生成時のプロンプトを文脈として埋め込んだアップスケール指示を返します。
func UpscalePrompt(original string) string {
	return fmt.Sprintf(upscaleTemplate, original)
}
