package injector

import (
	"context"
	"fmt"
	"time"

	"github.com/neurondb/NeuronFlow/internal/logging"
)

// ConnectPolicy bounds how long bootstrap keeps dialling a provider backend
type ConnectPolicy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultConnectPolicy is used for network-backed providers such as Redis
func DefaultConnectPolicy() ConnectPolicy {
	return ConnectPolicy{
		Attempts:   3,
		Backoff:    time.Second,
		MaxBackoff: 8 * time.Second,
	}
}

/*
 * connect dials a provider backend until it answers, doubling the wait
 * between attempts up to MaxBackoff. The last dial error is wrapped.
 */
func connect[T any](ctx context.Context, logger *logging.Logger, policy ConnectPolicy, capability string, dial func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	wait := policy.Backoff
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		impl, err := dial(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("Provider backend reachable", map[string]interface{}{
					"capability": capability,
					"attempts":   attempt,
				})
			}
			return impl, nil
		}
		lastErr = err

		logger.Warn("Provider backend unreachable", map[string]interface{}{
			"capability": capability,
			"attempt":    attempt,
			"of":         policy.Attempts,
			"error":      err.Error(),
		})
		if attempt == policy.Attempts {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
		if wait *= 2; policy.MaxBackoff > 0 && wait > policy.MaxBackoff {
			wait = policy.MaxBackoff
		}
	}

	return zero, fmt.Errorf("%s: backend unreachable after %d attempts: %w", capability, policy.Attempts, lastErr)
}
