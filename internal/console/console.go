// Package console handles all interaction with the operator's terminal:
// prompts with substitutable defaults, numbered selection, masked secret
// capture, and the exact-literal confirmation gate for destructive actions.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// ErrEmptyInput reports that a required field was left blank.
var ErrEmptyInput = errors.New("required input is empty")

var (
	promptStyle  = color.New(color.Bold)
	warningStyle = color.New(color.FgYellow, color.Bold)
)

// Console reads operator input line by line and writes prompts to out.
type Console struct {
	in     *bufio.Reader
	out    io.Writer
	secret func() ([]byte, error)
}

// New constructs a Console over a terminal. Secret input is masked when in
// is an actual terminal device.
func New(in *os.File, out io.Writer) *Console {
	c := NewFromReader(in, out)
	if fd := int(in.Fd()); term.IsTerminal(fd) {
		c.secret = func() ([]byte, error) { return term.ReadPassword(fd) }
	}
	return c
}

// NewFromReader constructs a Console over arbitrary streams. Secret input is
// read as a plain line; tests and piped input use this path.
func NewFromReader(in io.Reader, out io.Writer) *Console {
	c := &Console{
		in:  bufio.NewReader(in),
		out: out,
	}
	c.secret = func() ([]byte, error) {
		line, err := c.readLine()
		if err != nil {
			return nil, err
		}
		return []byte(line), nil
	}
	return c
}

// Prompt asks for a value, substituting fallback when the operator submits a
// blank line.
func (c *Console) Prompt(label, fallback string) (string, error) {
	if fallback != "" {
		promptStyle.Fprintf(c.out, "%s [%s]: ", label, fallback)
	} else {
		promptStyle.Fprintf(c.out, "%s: ", label)
	}

	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	if line == "" {
		return fallback, nil
	}
	return line, nil
}

// PromptRequired asks for a value that must not be blank.
func (c *Console) PromptRequired(label string) (string, error) {
	value, err := c.Prompt(label, "")
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("%s: %w", label, ErrEmptyInput)
	}
	return value, nil
}

// Select displays a numbered list and returns the index of the chosen
// option. A blank line selects the first option.
func (c *Console) Select(label string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options to select from")
	}

	fmt.Fprintln(c.out, label)
	for i, option := range options {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, option)
	}

	line, err := c.Prompt("Selection", "1")
	if err != nil {
		return 0, err
	}
	choice, err := strconv.Atoi(line)
	if err != nil || choice < 1 || choice > len(options) {
		return 0, fmt.Errorf("invalid selection %q: expected 1-%d", line, len(options))
	}
	return choice - 1, nil
}

// ReadSecret captures a secret without echoing it. The returned bytes are
// the caller's to wipe once consumed.
func (c *Console) ReadSecret(label string) ([]byte, error) {
	promptStyle.Fprintf(c.out, "%s: ", label)
	secret, err := c.secret()
	fmt.Fprintln(c.out)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("%s: %w", label, ErrEmptyInput)
	}
	return secret, nil
}

// ConfirmLiteral asks the operator to type literal exactly. Any other input,
// including a near-miss, reads as a decline; declining is cancellation, not
// an error.
func (c *Console) ConfirmLiteral(label, literal string) (bool, error) {
	warningStyle.Fprintf(c.out, "%s Type %s to proceed: ", label, literal)
	line, err := c.readLine()
	if err != nil {
		return false, err
	}
	return line == literal, nil
}

// Say writes an informational line to the operator.
func (c *Console) Say(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
