package generator

import (
	"fmt"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// checkSourceURL は取得前に参照先を検証します。
// gs:// はバケット名の有無だけを確認し、http(s) は httpClient の SSRF 検証に委ねます。
func checkSourceURL(httpClient httpkit.ClientInterface, ref string) error {
	if remoteio.IsGCSURI(ref) {
		_, _, err := remoteio.ParseGCSURI(ref)
		return err
	}
	if httpClient == nil {
		return fmt.Errorf("http client is not configured")
	}
	safe, err := httpClient.IsSafeURL(ref)
	if err != nil {
		return err
	}
	if !safe {
		return fmt.Errorf("許可されていないURLです: %s", ref)
	}
	return nil
}
