package generator

import (
	"context"
	"os"
)

// DefaultAPIKeyEnvs は API キーを探す環境変数の既定の順序です。
var DefaultAPIKeyEnvs = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// EnvCredentials は呼び出しのたびに環境変数から API キーを読み直します。
// 実行中に環境変数が更新されると、次の試行からそのキーが使われます。
type EnvCredentials struct {
	Keys []string
}

func (c EnvCredentials) APIKey(_ context.Context) (string, error) {
	keys := c.Keys
	if len(keys) == 0 {
		keys = DefaultAPIKeyEnvs
	}
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v, nil
		}
	}
	return "", nil
}

// StaticCredentials は固定の API キーを返します。
type StaticCredentials string

func (c StaticCredentials) APIKey(_ context.Context) (string, error) {
	return string(c), nil
}
