package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ruslanmv/jobcraft/internal/utils"
)

// retryPolicy bounds the attempts around one outbound network call. The
// configuration-presence check happens before the first attempt and is never
// retried; transport failures and non-2xx responses are retried until the
// budget runs out.
type retryPolicy struct {
	attempts int
	initial  time.Duration
	max      time.Duration
}

var defaultRetry = retryPolicy{
	attempts: 3,
	initial:  500 * time.Millisecond,
	max:      4 * time.Second,
}

// waitFor is stubbed in tests to skip real backoff sleeps.
var waitFor = utils.WaitFor

// do runs call up to p.attempts times with exponential backoff, doubling from
// p.initial up to the p.max cap. The exhausted error is wrapped into an
// *UpstreamError for the given identity.
func (p retryPolicy) do(ctx context.Context, logger *zap.Logger, id Identity, call func() error) error {
	delay := p.initial

	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = call(); err == nil {
			return nil
		}

		if attempt == p.attempts {
			break
		}

		if logger != nil {
			logger.Debug("retrying provider call",
				zap.String("provider", string(id)),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", delay),
				zap.Error(err),
			)
		}

		if werr := waitFor(ctx, delay); werr != nil {
			return &UpstreamError{Provider: id, Attempts: attempt, Err: werr}
		}

		delay *= 2
		if delay > p.max {
			delay = p.max
		}
	}

	return &UpstreamError{Provider: id, Attempts: p.attempts, Err: err}
}
