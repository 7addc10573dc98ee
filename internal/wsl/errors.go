package wsl

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCatalogEmpty reports that the distribution listing produced no output at all.
	ErrCatalogEmpty = errors.New("distribution catalog produced no output")
	// ErrCatalogNoEntries reports that the listing produced output but no usable rows.
	ErrCatalogNoEntries = errors.New("distribution catalog contains no entries")
	// ErrRetriesExhausted reports that every allowed attempt hit the transient condition.
	ErrRetriesExhausted = errors.New("retries exhausted")
)

// CommandError is the failure of a single external command invocation,
// carrying the tool's own diagnostics so the operator can retry by hand.
type CommandError struct {
	Op        string
	Result    CommandResult
	Transient bool
}

func (e *CommandError) Error() string {
	detail := strings.TrimSpace(e.Result.Output())
	if detail == "" {
		return fmt.Sprintf("%s failed with exit code %d", e.Op, e.Result.ExitCode)
	}
	return fmt.Sprintf("%s failed with exit code %d: %s", e.Op, e.Result.ExitCode, detail)
}

func commandError(op string, result CommandResult) error {
	if result.ExitCode == 0 {
		return nil
	}
	return &CommandError{Op: op, Result: result}
}
