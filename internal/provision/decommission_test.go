package provision

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/opsforge/wslforge/internal/console"
	"github.com/opsforge/wslforge/internal/wsl"
)

type removalRunner struct {
	listing       string
	unregisterErr string
	calls         []string
}

func (r *removalRunner) Run(ctx context.Context, name string, args ...string) (wsl.CommandResult, error) {
	call := name + " " + strings.Join(args, " ")
	r.calls = append(r.calls, call)

	switch args[0] {
	case "--list":
		return wsl.CommandResult{Stdout: r.listing}, nil
	case "--unregister":
		if r.unregisterErr != "" {
			return wsl.CommandResult{ExitCode: 1, Stderr: r.unregisterErr}, nil
		}
		return wsl.CommandResult{}, nil
	}
	return wsl.CommandResult{}, nil
}

func (r *removalRunner) RunInput(ctx context.Context, stdin io.Reader, name string, args ...string) (wsl.CommandResult, error) {
	return r.Run(ctx, name, args...)
}

func (r *removalRunner) unregisterCalls() int {
	count := 0
	for _, call := range r.calls {
		if strings.Contains(call, "--unregister") {
			count++
		}
	}
	return count
}

func testDecommissioner(runner *removalRunner, input string) (*Decommissioner, *bytes.Buffer) {
	out := &bytes.Buffer{}
	logger := testLogger()
	return NewDecommissioner(
		wsl.NewClient(runner, logger),
		console.NewFromReader(strings.NewReader(input), out),
		logger,
	), out
}

const removalListing = "  NAME            STATE           VERSION\n* control-node    Stopped         2\n"

func TestDecommissionShowsFullListing(t *testing.T) {
	runner := &removalRunner{listing: removalListing}
	decommissioner, out := testDecommissioner(runner, "control-node\nDELETE\n")

	if err := decommissioner.Run(context.Background(), ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "control-node    Stopped") {
		t.Errorf("listing must be displayed verbatim, got %q", out.String())
	}
	if runner.unregisterCalls() != 1 {
		t.Errorf("expected one unregister call, got %d", runner.unregisterCalls())
	}
}

func TestDecommissionDeclined(t *testing.T) {
	runner := &removalRunner{listing: removalListing}
	decommissioner, _ := testDecommissioner(runner, "control-node\nno\n")

	err := decommissioner.Run(context.Background(), "")
	if !errors.Is(err, ErrUserDeclined) {
		t.Fatalf("expected ErrUserDeclined, got %v", err)
	}
	if runner.unregisterCalls() != 0 {
		t.Error("a declined gate must have no side effects")
	}
}

func TestDecommissionLowercaseConfirmationDeclines(t *testing.T) {
	runner := &removalRunner{listing: removalListing}
	decommissioner, _ := testDecommissioner(runner, "control-node\ndelete\n")

	if err := decommissioner.Run(context.Background(), ""); !errors.Is(err, ErrUserDeclined) {
		t.Fatalf("near-miss confirmation must decline, got %v", err)
	}
	if runner.unregisterCalls() != 0 {
		t.Error("a declined gate must have no side effects")
	}
}

func TestDecommissionEmptyNameAborts(t *testing.T) {
	runner := &removalRunner{listing: removalListing}
	decommissioner, _ := testDecommissioner(runner, "\n")

	err := decommissioner.Run(context.Background(), "")
	if !errors.Is(err, console.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if runner.unregisterCalls() != 0 {
		t.Error("no unregister without a name")
	}
}

func TestDecommissionUnknownNameStillAttempted(t *testing.T) {
	runner := &removalRunner{
		listing:       removalListing,
		unregisterErr: "There is no distribution with the supplied name.",
	}
	decommissioner, _ := testDecommissioner(runner, "ghost\nDELETE\n")

	err := decommissioner.Run(context.Background(), "")
	if err == nil {
		t.Fatal("expected the unregister failure to be reported")
	}
	if !strings.Contains(err.Error(), "no distribution with the supplied name") {
		t.Errorf("error should carry the tool's diagnostics, got %v", err)
	}
	if runner.unregisterCalls() != 1 {
		t.Errorf("unregister failures are reported, not retried; got %d calls", runner.unregisterCalls())
	}
}

func TestDecommissionPreselectedNameSkipsPrompt(t *testing.T) {
	runner := &removalRunner{listing: removalListing}
	decommissioner, _ := testDecommissioner(runner, "DELETE\n")

	if err := decommissioner.Run(context.Background(), "control-node"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runner.unregisterCalls() != 1 {
		t.Errorf("expected one unregister call, got %d", runner.unregisterCalls())
	}
}
