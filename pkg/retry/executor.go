package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// MaxAttempts は 1 回の呼び出しに許す試行回数の上限です。
const MaxAttempts = 10

// Policy は再試行の回数と初回待機時間です。
// 待機時間は試行ごとに InitialDelay * 2^attempt で増えます。
type Policy struct {
	MaxRetries   int           // 初回を含む最大試行回数
	InitialDelay time.Duration // 1 回目の再試行前の待機時間
}

// DefaultPolicy は 3 回・初回 1 秒のポリシーを返します。
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:   3,
		InitialDelay: time.Second,
	}
}

// Delay は attempt 回目（0 始まり）の失敗後に待つ時間を返します。
// time.Duration に収まらない場合は最大値で飽和します。
func (p Policy) Delay(attempt int) time.Duration {
	if p.InitialDelay <= 0 {
		return 0
	}
	attempt = max(attempt, 0)
	if attempt >= 63 || p.InitialDelay > time.Duration(math.MaxInt64>>attempt) {
		return time.Duration(math.MaxInt64)
	}
	return p.InitialDelay << attempt
}

// SleepFunc は待機処理です。コンテキストが終了したらそのエラーを返します。
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor はリモート呼び出しを再試行付きで実行します。
// 接続や認証情報は保持せず、呼び出し側が試行ごとに組み立てます。
type Executor struct {
	policy Policy
	sleep  SleepFunc
}

// Option は Executor の設定を変更します。
type Option func(*Executor)

// WithSleep は待機処理を差し替えます。
func WithSleep(fn SleepFunc) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// NewExecutor は Executor を生成します。MaxRetries は 1 から MaxAttempts の範囲に丸めます。
func NewExecutor(policy Policy, opts ...Option) *Executor {
	policy.MaxRetries = min(max(policy.MaxRetries, 1), MaxAttempts)
	if policy.InitialDelay < 0 {
		policy.InitialDelay = 0
	}
	e := &Executor{
		policy: policy,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy は実際に使われるポリシーを返します。
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute は call を最大 MaxRetries 回まで実行します。
// 権限系のエラーは即座に、それ以外は試行を使い切った時点で *RemoteError を返します。
// 実行中の call 自体は中断しませんが、待機中にコンテキストが終了すると打ち切ります。
func Execute[T any](ctx context.Context, e *Executor, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if e == nil {
		e = NewExecutor(DefaultPolicy())
	}

	var lastErr error
	for attempt := 0; attempt < e.policy.MaxRetries; attempt++ {
		res, err := call(ctx)
		if err == nil {
			if attempt > 0 {
				slog.InfoContext(ctx, "再試行で成功しました", "attempt", attempt+1)
			}
			return res, nil
		}
		lastErr = err

		if IsEntitlementError(err) {
			slog.WarnContext(ctx, "権限エラーのため再試行しません", "attempt", attempt+1, "error", err)
			return zero, &RemoteError{Entitlement: true, Attempts: attempt + 1, Err: err}
		}
		if attempt == e.policy.MaxRetries-1 {
			break
		}

		delay := e.policy.Delay(attempt)
		slog.WarnContext(ctx, "リモート呼び出しに失敗したため再試行します",
			"attempt", attempt+1,
			"max_retries", e.policy.MaxRetries,
			"delay", delay,
			"error", err,
		)
		if err := e.sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("retry canceled after %d attempt(s): %w", attempt+1, err)
		}
	}

	slog.ErrorContext(ctx, "再試行の上限に達しました", "attempts", e.policy.MaxRetries, "error", lastErr)
	return zero, &RemoteError{Attempts: e.policy.MaxRetries, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
