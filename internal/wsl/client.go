// Package wsl adapts the WSL command-line tool behind a small typed surface:
// instance listing and existence checks, catalog parsing, installation,
// default selection with bounded retries, unregistration, and guest command
// execution. The tool's text output format is the integrity boundary here;
// parsing constants live next to the parsers they belong to.
package wsl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ubuntu/decorate"
)

// DefaultExecutable is the WSL command-line tool invoked for every operation.
const DefaultExecutable = "wsl.exe"

// Client drives the WSL command-line tool. All state lives in the tool
// itself; the client is a stateless adapter over its text interface.
type Client struct {
	runner Runner
	exe    string
	logger *slog.Logger
}

// NewClient constructs a Client over the provided runner. A nil logger falls
// back to the process default.
func NewClient(runner Runner, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		runner: runner,
		exe:    DefaultExecutable,
		logger: logger,
	}
}

// ListInstalled returns the verbose instance listing verbatim. The output is
// the operator's source of truth for valid names, so it is never filtered.
func (c *Client) ListInstalled(ctx context.Context) (listing string, err error) {
	defer decorate.OnError(&err, "could not list installed instances")

	result, err := c.runner.Run(ctx, c.exe, "--list", "--verbose")
	if err != nil {
		return "", err
	}
	if err := commandError("list instances", result); err != nil {
		return "", err
	}
	return result.Stdout, nil
}

// InstanceExists reports whether name appears in the current instance
// listing. The match is a case-sensitive substring search over the raw
// listing text, so a name that is a prefix of another registered name will
// produce a false positive.
func (c *Client) InstanceExists(ctx context.Context, name string) (bool, error) {
	listing, err := c.ListInstalled(ctx)
	if err != nil {
		return false, err
	}
	return strings.Contains(listing, name), nil
}

// Install fetches and registers a distribution. When instance differs from
// the distribution name it is registered under that name instead.
func (c *Client) Install(ctx context.Context, distribution, instance string) (err error) {
	defer decorate.OnError(&err, "could not install distribution %q", distribution)

	args := []string{"--install", "--distribution", distribution, "--no-launch"}
	if instance != "" && instance != distribution {
		args = append(args, "--name", instance)
	}

	c.logger.Info("installing distribution", "distribution", distribution, "instance", instance)
	result, err := c.runner.Run(ctx, c.exe, args...)
	if err != nil {
		return err
	}
	return commandError("install", result)
}

// SetDefault marks instance as the default. Immediately after installation
// the instance can be transiently missing from the tool's registry, so the
// call goes through the bounded-retry executor.
func (c *Client) SetDefault(ctx context.Context, instance string, policy Policy) (err error) {
	defer decorate.OnError(&err, "could not set %q as default instance", instance)

	_, err = ExecuteWithRetry(ctx, c.logger, "set-default", policy, func(ctx context.Context) (CommandResult, error) {
		return c.runner.Run(ctx, c.exe, "--set-default", instance)
	})
	return err
}

// Unregister removes an instance and its filesystem. Failures are reported,
// never retried: unregistration has no known transient failure mode.
func (c *Client) Unregister(ctx context.Context, instance string) (err error) {
	defer decorate.OnError(&err, "could not unregister instance %q", instance)

	c.logger.Info("unregistering instance", "instance", instance)
	result, err := c.runner.Run(ctx, c.exe, "--unregister", instance)
	if err != nil {
		return err
	}
	return commandError("unregister", result)
}

// RunIn executes commandLine inside the instance through the guest shell,
// as the given guest user.
func (c *Client) RunIn(ctx context.Context, instance, user, commandLine string) (result CommandResult, err error) {
	defer decorate.OnError(&err, "could not run command in instance %q", instance)

	result, err = c.runner.Run(ctx, c.exe,
		"--distribution", instance, "--user", user, "--", "sh", "-c", commandLine)
	if err != nil {
		return CommandResult{}, err
	}
	return result, commandError("guest command", result)
}

// CreateUser provisions a guest account: create the user, set its password
// non-interactively, and add it to the sudo group. The secret travels to the
// guest over stdin only; the staging buffer is wiped before returning on
// every path.
func (c *Client) CreateUser(ctx context.Context, instance, username string, secret []byte) (err error) {
	defer decorate.OnError(&err, "could not create user %q in instance %q", username, instance)

	c.logger.Info("creating guest user", "instance", instance, "user", username)

	result, err := c.RunIn(ctx, instance, "root",
		fmt.Sprintf("useradd --create-home --shell /bin/bash %s", username))
	if err != nil && result.ExitCode != 9 { // exit 9: user already exists
		return err
	}

	line := make([]byte, 0, len(username)+1+len(secret))
	line = append(line, username...)
	line = append(line, ':')
	line = append(line, secret...)
	defer wipe(line)

	passwd, err := c.runner.RunInput(ctx, bytes.NewReader(line), c.exe,
		"--distribution", instance, "--user", "root", "--", "chpasswd")
	if err != nil {
		return err
	}
	if err := commandError("set password", passwd); err != nil {
		return err
	}

	_, err = c.RunIn(ctx, instance, "root",
		fmt.Sprintf("usermod -aG sudo %s", username))
	return err
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
