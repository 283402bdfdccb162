package imgutil

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/shouni/gemini-product-kit/pkg/domain"
)

const (
	dataURIScheme   = "data:"
	base64Encoding  = "base64"
	fallbackExtName = "png"
)

// EncodeDataURI はバイト列を data:<mime>;base64,<data> 形式に変換します。
func EncodeDataURI(data []byte, mimeType string) domain.EncodedPayload {
	return domain.EncodedPayload(dataURIScheme + mimeType + ";" + base64Encoding + "," + base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURI は data URI をバイト列と MIME タイプに戻します。
func DecodeDataURI(p domain.EncodedPayload) ([]byte, string, error) {
	header, body, ok := strings.Cut(string(p), ",")
	if !ok {
		return nil, "", fmt.Errorf("%w: missing data separator", domain.ErrMalformedPayload)
	}
	meta, ok := strings.CutPrefix(header, dataURIScheme)
	if !ok {
		return nil, "", fmt.Errorf("%w: missing %q scheme", domain.ErrMalformedPayload, dataURIScheme)
	}

	i := strings.LastIndex(meta, ";")
	if i < 0 || meta[i+1:] != base64Encoding {
		return nil, "", fmt.Errorf("%w: payload is not base64 encoded", domain.ErrMalformedPayload)
	}
	mimeType := meta[:i]
	if mimeType == "" {
		return nil, "", fmt.Errorf("%w: missing mime type", domain.ErrMalformedPayload)
	}

	data, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}
	return data, mimeType, nil
}

// ExtensionForMIME は MIME タイプのサブタイプを拡張子として返します（不明なら png）。
func ExtensionForMIME(mimeType string) string {
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok {
		return fallbackExtName
	}
	sub, _, _ = strings.Cut(sub, ";")
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return fallbackExtName
	}
	return sub
}
