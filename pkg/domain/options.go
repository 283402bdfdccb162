package domain

import (
	"fmt"
	"slices"
)

// AspectRatios はサポートするアスペクト比の一覧です。先頭がデフォルトです。
var AspectRatios = []string{"1:1", "3:4", "4:3", "9:16", "16:9"}

// LightingStyles はライティングの選択肢です。
var LightingStyles = []string{
	"Soft studio lighting",
	"Dramatic cinematic lighting",
	"Natural daylight",
	"Hard flash photography",
	"Backlit silhouette",
	"Moody low-key lighting",
}

// CameraPerspectives はカメラアングルの選択肢です。
var CameraPerspectives = []string{
	"Eye-level shot",
	"High-angle shot",
	"Top-down shot",
	"Low-angle shot",
	"Close-up shot",
	"Macro shot",
	"Dutch angle shot",
	"Full body shot",
}

// StyleOptions は固定の選択肢から 1 つずつ選ぶスタイル設定です。
type StyleOptions struct {
	AspectRatio string
	Lighting    string
	Perspective string
}

// DefaultStyleOptions は各選択肢の先頭を使った初期設定を返します。
func DefaultStyleOptions() StyleOptions {
	return StyleOptions{
		AspectRatio: AspectRatios[0],
		Lighting:    LightingStyles[0],
		Perspective: CameraPerspectives[0],
	}
}

// Validate は各値が選択肢に含まれているかを検証します。
func (o StyleOptions) Validate() error {
	if !slices.Contains(AspectRatios, o.AspectRatio) {
		return fmt.Errorf("%w: aspect ratio %q", ErrUnsupportedOption, o.AspectRatio)
	}
	if !slices.Contains(LightingStyles, o.Lighting) {
		return fmt.Errorf("%w: lighting %q", ErrUnsupportedOption, o.Lighting)
	}
	if !slices.Contains(CameraPerspectives, o.Perspective) {
		return fmt.Errorf("%w: perspective %q", ErrUnsupportedOption, o.Perspective)
	}
	return nil
}
