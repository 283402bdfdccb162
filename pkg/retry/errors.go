package retry

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/shouni/gemini-product-kit/pkg/domain"
	"google.golang.org/genai"
)

// RemoteError は Executor が諦めたリモート呼び出しのエラーです。
// errors.Is で domain.ErrEntitlementDenied か domain.ErrTransientRemote に一致します。
type RemoteError struct {
	Entitlement bool
	Attempts    int
	Err         error
}

func (e *RemoteError) Error() string {
	if e.Entitlement {
		return fmt.Sprintf("entitlement denied after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("remote call failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *RemoteError) Unwrap() []error {
	kind := domain.ErrTransientRemote
	if e.Entitlement {
		kind = domain.ErrEntitlementDenied
	}
	return []error{kind, e.Err}
}

// 構造化されたステータスを持たないエラー向けの文字列シグネチャ
var entitlementMarkers = []string{
	"403",
	"PERMISSION_DENIED",
	"404",
	"Requested entity was not found",
}

// IsEntitlementError は再試行しても回復しない権限・エンティティ未検出系のエラーかを判定します。
func IsEntitlementError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrEntitlementDenied) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) && isEntitlementStatus(apiErr) {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil && isEntitlementStatus(*apiErrPtr) {
		return true
	}

	msg := err.Error()
	for _, marker := range entitlementMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func isEntitlementStatus(e genai.APIError) bool {
	switch {
	case e.Code == http.StatusForbidden, e.Code == http.StatusNotFound:
		return true
	case e.Status == "PERMISSION_DENIED", e.Status == "NOT_FOUND":
		return true
	}
	return false
}
