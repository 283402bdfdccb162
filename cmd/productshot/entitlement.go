package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/shouni/gemini-product-kit/pkg/generator"
)

// envEntitlement は .env ファイルを API キーの選択先として扱います。
// 再選択を求められたら利用者にキーの差し替えを案内し、.env を読み直して環境変数を上書きします。
// EnvCredentials は試行ごとに環境変数を読むため、次の試行から新しいキーが使われます。
type envEntitlement struct {
	envFile     string
	credentials generator.EnvCredentials
}

func (e *envEntitlement) HasEntitlement(ctx context.Context) bool {
	key, err := e.credentials.APIKey(ctx)
	return err == nil && key != ""
}

func (e *envEntitlement) RequestEntitlementSelection(ctx context.Context) error {
	keys := e.credentials.Keys
	if len(keys) == 0 {
		keys = generator.DefaultAPIKeyEnvs
	}
	slog.WarnContext(ctx, "Pro モデルには有料プランの API キーが必要です。キーを設定してから再実行してください",
		"file", e.envFile, "envs", keys)

	if err := godotenv.Overload(e.envFile); err != nil {
		return fmt.Errorf("%s の再読み込みに失敗しました: %w", e.envFile, err)
	}
	return nil
}
