package studio

import (
	"context"
	"errors"

	"github.com/shouni/gemini-product-kit/pkg/domain"
)

// errSelectionRequested は権限エラーの後に認証情報の再選択を促したことを示します。
var errSelectionRequested = errors.New("entitlement selection requested")

// UserMessage はエラーを利用者向けの文言に変換します。
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, errSelectionRequested):
		return "Please select a valid paid API key to use the Pro Upscaler, then try again."
	case errors.Is(err, domain.ErrEntitlementDenied):
		return "Permission denied. Please ensure you are using a valid paid API key."
	case errors.Is(err, domain.ErrUpscaleInProgress):
		return "An upscale is already in progress. Please wait for it to finish."
	case errors.Is(err, domain.ErrNoProductImages):
		return "Please add at least one product image."
	case errors.Is(err, domain.ErrEmptyDescription):
		return "Could not extract a style description from the style image."
	case errors.Is(err, domain.ErrNoImagesGenerated):
		return "The model did not return any images. Please adjust the prompt and try again."
	case errors.Is(err, domain.ErrNoImageReturned):
		return "The model did not return an image. Please try again."
	case errors.Is(err, domain.ErrImageDecode), errors.Is(err, domain.ErrMalformedPayload):
		return "The image could not be read. Please use a PNG, JPEG, GIF or WebP file."
	case errors.Is(err, domain.ErrUnsupportedOption), errors.Is(err, domain.ErrInvalidAspectRatio):
		return "The selected style option is not supported."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "The request was canceled."
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return "An unknown error occurred."
}
