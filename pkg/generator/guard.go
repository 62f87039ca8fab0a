package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardOptions は外部モデル呼び出しを保護するレート制限・ブレーカー・タイムアウトの設定です。
type GuardOptions struct {
	// RateInterval は呼び出し間隔です。0 以下なら無制限になります。
	RateInterval time.Duration
	RateBurst    int
	// BreakerFailures は連続失敗がこの回数に達するとブレーカーを開きます。0 ならブレーカーは開きません。
	BreakerFailures uint32
	BreakerCooldown time.Duration
	// Timeout は 1 回の呼び出しの上限時間です。0 以下なら呼び出し元のコンテキストに従います。
	Timeout time.Duration
}

// guard は 1 種類のモデル呼び出しをレート制限とサーキットブレーカーで包みます。
type guard struct {
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	timeout time.Duration
}

func newGuard(name string, opts GuardOptions) *guard {
	burst := opts.RateBurst
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if opts.RateInterval > 0 {
		limit = rate.Every(opts.RateInterval)
	}

	failures := opts.BreakerFailures
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return failures > 0 && counts.ConsecutiveFailures >= failures
		},
		// 呼び出し元によるキャンセルは障害として数えない
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("サーキットブレーカーの状態が変化しました", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &guard{
		limiter: rate.NewLimiter(limit, burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		timeout: opts.Timeout,
	}
}

// guardedCall はレート制限の待機後、タイムアウト付きコンテキストでブレーカー越しに fn を実行します。
func guardedCall[T any](ctx context.Context, g *guard, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if err := g.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(callCtx)
	})
	if err != nil {
		return zero, err
	}
	v, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type %T", out)
	}
	return v, nil
}
