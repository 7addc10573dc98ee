package wsl

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

// stubRunner scripts command outcomes keyed on the joined argument list and
// records every invocation.
type stubRunner struct {
	handle func(name string, args []string) (CommandResult, error)
	calls  []string
	stdins []string
}

func (r *stubRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	return r.handle(name, args)
}

func (r *stubRunner) RunInput(ctx context.Context, stdin io.Reader, name string, args ...string) (CommandResult, error) {
	if stdin != nil {
		data, _ := io.ReadAll(stdin)
		r.stdins = append(r.stdins, string(data))
	}
	return r.Run(ctx, name, args...)
}

func newStubClient(handle func(name string, args []string) (CommandResult, error)) (*Client, *stubRunner) {
	runner := &stubRunner{handle: handle}
	return NewClient(runner, discardLogger()), runner
}

func TestInstanceExistsSubstringSemantics(t *testing.T) {
	listing := "  NAME            STATE           VERSION\n* control-node    Running         2\n"
	client, _ := newStubClient(func(name string, args []string) (CommandResult, error) {
		return CommandResult{Stdout: listing}, nil
	})

	cases := []struct {
		query string
		want  bool
	}{
		// Substring match: a prefix of a registered name is a documented
		// false positive of this check.
		{"control-node", true},
		{"control", true},
		{"control-node-2", false},
		{"Control-Node", false},
	}
	for _, tc := range cases {
		got, err := client.InstanceExists(context.Background(), tc.query)
		if err != nil {
			t.Fatalf("InstanceExists(%q): unexpected error: %v", tc.query, err)
		}
		if got != tc.want {
			t.Errorf("InstanceExists(%q) = %t, want %t", tc.query, got, tc.want)
		}
	}
}

func TestAvailableDistributionsEmptyOutput(t *testing.T) {
	client, _ := newStubClient(func(name string, args []string) (CommandResult, error) {
		return CommandResult{Stdout: "   \n"}, nil
	})

	_, err := client.AvailableDistributions(context.Background())
	if !errors.Is(err, ErrCatalogEmpty) {
		t.Errorf("expected ErrCatalogEmpty, got %v", err)
	}
}

func TestUnregisterFailureIsReportedNotRetried(t *testing.T) {
	client, runner := newStubClient(func(name string, args []string) (CommandResult, error) {
		return CommandResult{ExitCode: 1, Stderr: "There is no distribution with the supplied name."}, nil
	})

	err := client.Unregister(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "no distribution with the supplied name") {
		t.Errorf("error should carry the tool's diagnostics, got %v", err)
	}
	if len(runner.calls) != 1 {
		t.Errorf("unregister must be attempted exactly once, got %d calls", len(runner.calls))
	}
}

func TestInstallPassesInstanceName(t *testing.T) {
	client, runner := newStubClient(func(name string, args []string) (CommandResult, error) {
		return CommandResult{}, nil
	})

	if err := client.Install(context.Background(), "Ubuntu", "control-node"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := runner.calls[0]
	if !strings.Contains(call, "--install") || !strings.Contains(call, "--distribution Ubuntu") {
		t.Errorf("unexpected install invocation: %s", call)
	}
	if !strings.Contains(call, "--name control-node") {
		t.Errorf("instance name missing from invocation: %s", call)
	}
}

func TestInstallOmitsNameWhenSameAsDistribution(t *testing.T) {
	client, runner := newStubClient(func(name string, args []string) (CommandResult, error) {
		return CommandResult{}, nil
	})

	if err := client.Install(context.Background(), "Ubuntu", "Ubuntu"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(runner.calls[0], "--name") {
		t.Errorf("redundant --name in invocation: %s", runner.calls[0])
	}
}

func TestCreateUserSendsSecretOverStdinOnly(t *testing.T) {
	client, runner := newStubClient(func(name string, args []string) (CommandResult, error) {
		return CommandResult{}, nil
	})

	secret := []byte("hunter2")
	if err := client.CreateUser(context.Background(), "control-node", "ansible", secret); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(runner.stdins) != 1 || runner.stdins[0] != "ansible:hunter2" {
		t.Fatalf("expected credential on stdin exactly once, got %q", runner.stdins)
	}
	for _, call := range runner.calls {
		if strings.Contains(call, "hunter2") {
			t.Errorf("secret leaked into a command line: %s", call)
		}
	}

	var sawUseradd, sawChpasswd, sawUsermod bool
	for _, call := range runner.calls {
		switch {
		case strings.Contains(call, "useradd"):
			sawUseradd = true
		case strings.Contains(call, "chpasswd"):
			sawChpasswd = true
		case strings.Contains(call, "usermod -aG sudo ansible"):
			sawUsermod = true
		}
	}
	if !sawUseradd || !sawChpasswd || !sawUsermod {
		t.Errorf("incomplete user creation sequence: %v", runner.calls)
	}
}
