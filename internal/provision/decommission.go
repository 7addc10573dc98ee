package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsforge/wslforge/internal/console"
	"github.com/opsforge/wslforge/internal/wsl"
)

// confirmLiteral is the exact string the operator must type before an
// instance is unregistered.
const confirmLiteral = "DELETE"

// Decommissioner removes instances after an explicit typed confirmation.
type Decommissioner struct {
	client  *wsl.Client
	console *console.Console
	logger  *slog.Logger
}

// NewDecommissioner wires a Decommissioner from its collaborators.
func NewDecommissioner(client *wsl.Client, term *console.Console, logger *slog.Logger) *Decommissioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decommissioner{client: client, console: term, logger: logger}
}

// Run walks the decommission sequence: show the full instance listing,
// capture the target name, demand the confirmation literal, unregister. The
// listing is the operator's only source of truth for valid names, so it is
// always displayed complete and unfiltered. There is deliberately no
// existence pre-check: an unknown name surfaces as the unregister command's
// own failure, reported but never retried.
func (d *Decommissioner) Run(ctx context.Context, name string) error {
	listing, err := d.client.ListInstalled(ctx)
	if err != nil {
		return fmt.Errorf("list instances: %w", err)
	}
	d.console.Say("%s", strings.TrimRight(listing, "\n"))

	name = strings.TrimSpace(name)
	if name == "" {
		if name, err = d.console.Prompt("Instance to remove", ""); err != nil {
			return err
		}
	}
	if name == "" {
		return fmt.Errorf("instance name: %w", console.ErrEmptyInput)
	}

	ok, err := d.console.ConfirmLiteral(
		fmt.Sprintf("This permanently deletes instance %q and its filesystem.", name), confirmLiteral)
	if err != nil {
		return err
	}
	if !ok {
		d.logger.Info("removal declined by operator", "instance", name)
		return ErrUserDeclined
	}

	if err := d.client.Unregister(ctx, name); err != nil {
		return err
	}

	d.logger.Info("instance removed", "instance", name)
	d.console.Say("Instance %q removed.", name)
	return nil
}
