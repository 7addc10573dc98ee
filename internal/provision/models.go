// Package provision orchestrates the end-to-end lifecycle workflows: the
// provisioning sequence that stands up a control-node instance, and the
// confirmation-gated decommission sequence that removes one.
package provision

import (
	"errors"
	"fmt"
)

// State names a position in the provisioning sequence. Transitions are
// strictly sequential; an abort can happen from any non-terminal state.
type State string

const (
	StateInit              State = "init"
	StateFeaturesChecked   State = "features_checked"
	StateToolReady         State = "tool_ready"
	StateInstanceReady     State = "instance_ready"
	StateDefaultSet        State = "default_set"
	StateUserCreated       State = "user_created"
	StatePackagesInstalled State = "packages_installed"
	StateDone              State = "done"
)

// ErrUserDeclined reports that the operator cancelled at a confirmation
// gate. It is a normal outcome, not a failure; nothing done before the gate
// is rolled back.
var ErrUserDeclined = errors.New("operator declined")

// AbortError surfaces which step failed and the last state the sequence
// completed, so the operator can inspect and retry manually. Prior steps are
// deliberately left in place: tearing down a half-provisioned instance is
// riskier than leaving it for inspection.
type AbortError struct {
	Step     string
	LastGood State
	Err      error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("provisioning aborted at %q (last completed state: %s): %v", e.Step, e.LastGood, e.Err)
}

func (e *AbortError) Unwrap() error { return e.Err }
