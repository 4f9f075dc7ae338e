package discord

import (
	"context"
	"fmt"
	"log"

	"github.com/keshon/voice-warden/pkg/retry"
)

// connect opens the gateway session, retrying transient failures with
// exponential backoff. Exhausting the attempt budget is fatal to startup;
// the wrapped error satisfies errors.Is(err, retry.ErrExhausted).
func (b *Bot) connect(ctx context.Context) error {
	backoff := retry.Backoff{
		MaxAttempts: b.cfg.ConnectMaxAttempts,
		BaseDelay:   b.cfg.ConnectBaseDelay,
		OnRetry: func(attempt int, err error) {
			log.Printf("[WARN] Discord connect attempt %d failed: %v — retrying", attempt, err)
		},
	}

	if err := backoff.Run(ctx, b.dg.Open); err != nil {
		return fmt.Errorf("open Discord session: %w", err)
	}
	return nil
}
