package wsl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Policy bounds the retry loop around one external command. Only output
// matching TransientSignature is ever retried: every other failure is
// terminal on first sight, so real errors are never masked by blind retries.
type Policy struct {
	MaxAttempts        int
	Delay              time.Duration
	TransientSignature string
}

// DefaultSetDefaultPolicy covers the one known race: an instance freshly
// registered by an install command can be briefly missing from the tool's
// default-selection registry.
var DefaultSetDefaultPolicy = Policy{
	MaxAttempts:        5,
	Delay:              2 * time.Second,
	TransientSignature: "There is no distribution with the supplied name",
}

// AttemptFunc runs one attempt of a command. A returned error means the
// command could not be started at all and is always terminal.
type AttemptFunc func(ctx context.Context) (CommandResult, error)

// ExecuteWithRetry runs attempt until it succeeds, fails terminally, or the
// attempt budget is spent. Success returns immediately with no delay. A
// failure whose output matches the policy's transient signature sleeps
// policy.Delay and retries; any other failure aborts at once. Exhausting
// MaxAttempts transient failures reports ErrRetriesExhausted, distinct from
// a terminal abort.
func ExecuteWithRetry(ctx context.Context, logger *slog.Logger, op string, policy Policy, attempt AttemptFunc) (CommandResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	var last CommandResult
	for n := 1; n <= policy.MaxAttempts; n++ {
		result, err := attempt(ctx)
		if err != nil {
			return CommandResult{}, fmt.Errorf("%s: %w", op, err)
		}
		if result.ExitCode == 0 {
			return result, nil
		}

		if policy.TransientSignature == "" || !strings.Contains(result.Output(), policy.TransientSignature) {
			return result, &CommandError{Op: op, Result: result}
		}
		last = result

		logger.Warn("transient failure, will retry",
			"op", op, "attempt", n, "max_attempts", policy.MaxAttempts, "delay", policy.Delay)

		if n == policy.MaxAttempts {
			break
		}
		if err := sleep(ctx, policy.Delay); err != nil {
			return last, fmt.Errorf("%s: %w", op, err)
		}
	}

	return last, fmt.Errorf("%s: %w after %d attempts", op, ErrRetriesExhausted, policy.MaxAttempts)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
