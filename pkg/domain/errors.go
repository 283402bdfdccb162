package domain

import "errors"

// 正規化・コーデック層のエラー。入力不正を示し、再試行しても回復しません。
var (
	ErrImageDecode        = errors.New("image decode failed")
	ErrInvalidAspectRatio = errors.New("invalid aspect ratio")
	ErrRenderSurface      = errors.New("render surface unavailable")
	ErrEncode             = errors.New("image encode failed")
	ErrMalformedPayload   = errors.New("malformed payload")
)

// リモート呼び出しのエラー分類。
var (
	// ErrEntitlementDenied は権限不足・エンティティ未検出など、認証情報の再選択が必要な失敗です。
	ErrEntitlementDenied = errors.New("entitlement denied")
	// ErrTransientRemote は再試行上限まで試しても回復しなかった一時的な失敗です。
	ErrTransientRemote = errors.New("remote call failed")
	// ErrMissingCredential は API キーが解決できなかったことを示します。
	ErrMissingCredential = errors.New("missing credential")
)

// 全試行・全バリエーションで有効な出力が得られなかった場合の終端エラー。
var (
	ErrNoImagesGenerated = errors.New("no images generated")
	ErrNoImageReturned   = errors.New("no image returned")
	ErrEmptyDescription  = errors.New("empty style description")
)

var (
	ErrNoSourceImages    = errors.New("at least one source image is required")
	ErrNoProductImages   = errors.New("no product images")
	ErrUnsupportedOption = errors.New("unsupported style option")
	ErrUpscaleInProgress = errors.New("upscale already in progress")
)
