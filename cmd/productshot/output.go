package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"github.com/shouni/gemini-product-kit/pkg/imgutil"
)

// writeImages は images を dir に <prefix>-<n>.<ext> (n は 1 始まり) として書き出します。
func writeImages(dir, prefix string, images []domain.ImageResponse) ([]string, error) {
	paths := make([]string, 0, len(images))
	for i, img := range images {
		path, err := writeImage(dir, fmt.Sprintf("%s-%d", prefix, i+1), img.Payload)
		if err != nil {
			return paths, err
		}
		if img.UsedSeed != nil {
			slog.Debug("シード付きで書き出しました", "file", path, "seed", *img.UsedSeed)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writeImage は payload をデコードし、MIME タイプに応じた拡張子で書き出します。
func writeImage(dir, name string, payload domain.EncodedPayload) (string, error) {
	data, mimeType, err := imgutil.DecodeDataURI(payload)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("出力ディレクトリの作成に失敗しました: %w", err)
	}
	path := filepath.Join(dir, name+"."+imgutil.ExtensionForMIME(mimeType))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("画像の書き出しに失敗しました: %w", err)
	}
	return path, nil
}
