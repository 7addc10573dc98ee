package wsl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"unicode/utf16"
)

// CommandResult captures the observable outcome of one external command
// invocation. A non-zero exit code is data, not a Go error: callers decide
// whether it means retry, skip, or abort.
type CommandResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns stdout and stderr joined, for signature matching and
// operator-facing diagnostics.
func (r CommandResult) Output() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Runner executes external commands. The single production implementation
// shells out; tests substitute scripted stubs at this boundary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
	RunInput(ctx context.Context, stdin io.Reader, name string, args ...string) (CommandResult, error)
}

// NewRunner returns a Runner backed by os/exec.
func NewRunner() Runner {
	return execRunner{}
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	return runCommand(ctx, nil, name, args...)
}

func (execRunner) RunInput(ctx context.Context, stdin io.Reader, name string, args ...string) (CommandResult, error) {
	return runCommand(ctx, stdin, name, args...)
}

func runCommand(ctx context.Context, stdin io.Reader, name string, args ...string) (CommandResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return CommandResult{}, fmt.Errorf("execute %s: %w", name, err)
		}
		return CommandResult{
			ExitCode: exitErr.ExitCode(),
			Stdout:   decodeConsoleOutput(stdout.Bytes()),
			Stderr:   decodeConsoleOutput(stderr.Bytes()),
		}, nil
	}

	return CommandResult{
		Stdout: decodeConsoleOutput(stdout.Bytes()),
		Stderr: decodeConsoleOutput(stderr.Bytes()),
	}, nil
}

// decodeConsoleOutput normalizes raw process output. wsl.exe writes UTF-16LE
// when its stdout is a pipe, so the bytes must be decoded before any text
// parsing; plain UTF-8 output passes through untouched.
func decodeConsoleOutput(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}

	if looksUTF16LE(raw) {
		if len(raw)%2 != 0 {
			raw = raw[:len(raw)-1]
		}
		units := make([]uint16, 0, len(raw)/2)
		for i := 0; i+1 < len(raw); i += 2 {
			units = append(units, uint16(raw[i])|uint16(raw[i+1])<<8)
		}
		if len(units) > 0 && units[0] == 0xFEFF {
			units = units[1:]
		}
		return normalizeNewlines(string(utf16.Decode(units)))
	}

	return normalizeNewlines(string(raw))
}

func looksUTF16LE(raw []byte) bool {
	if len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xFE {
		return true
	}
	limit := len(raw)
	if limit > 64 {
		limit = 64
	}
	return bytes.IndexByte(raw[:limit], 0x00) >= 0
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
