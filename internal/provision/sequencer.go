package provision

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/opsforge/wslforge/internal/bootstrap"
	"github.com/opsforge/wslforge/internal/console"
	"github.com/opsforge/wslforge/internal/features"
	"github.com/opsforge/wslforge/internal/wsl"
)

// Defaults substituted when the operator leaves a prompt blank.
const (
	DefaultInstanceName = "control-node"
	DefaultUsername     = "ansible"
)

// Options configures one provisioning run. Blank fields are resolved
// interactively unless NonInteractive is set.
type Options struct {
	InstanceName   string
	Username       string
	Distribution   string
	ProfileID      string
	NonInteractive bool
}

// Sequencer walks the provisioning states in order, aborting the whole
// sequence on the first unrecoverable step.
type Sequencer struct {
	client   *wsl.Client
	prober   *features.Prober
	console  *console.Console
	profiles *bootstrap.Repository
	policy   wsl.Policy
	logger   *slog.Logger
}

// NewSequencer wires a Sequencer from its collaborators.
func NewSequencer(client *wsl.Client, prober *features.Prober, term *console.Console, profiles *bootstrap.Repository, policy wsl.Policy, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{
		client:   client,
		prober:   prober,
		console:  term,
		profiles: profiles,
		policy:   policy,
		logger:   logger,
	}
}

// Run executes the full provisioning sequence. Nothing is rolled back on
// abort; the error names the failing step and the last completed state.
func (s *Sequencer) Run(ctx context.Context, opts Options) error {
	state := StateInit
	logger := s.logger.With("run_id", uuid.NewString())

	fail := func(step string, err error) error {
		abort := &AbortError{Step: step, LastGood: state, Err: err}
		logger.Error("provisioning aborted", "step", step, "last_state", state, "error", err)
		return abort
	}

	name, username, err := s.resolveIdentity(opts)
	if err != nil {
		return fail("resolve inputs", err)
	}
	logger = logger.With("instance", name)

	if !features.Elevated() {
		logger.Warn("process is not elevated; feature servicing may be refused")
	}

	// The WSL kernel feature is load-bearing; the VM platform feature can
	// be missing on WSL1-only hosts, so its probe failure only degrades.
	if err := s.prober.Ensure(ctx, features.SubsystemLinux); err != nil {
		return fail("enable WSL feature", err)
	}
	if err := s.prober.Ensure(ctx, features.VirtualMachinePlatform); err != nil {
		logger.Warn("virtual machine platform probe failed, continuing degraded", "error", err)
	}
	state = StateFeaturesChecked

	listing, err := s.client.ListInstalled(ctx)
	if err != nil {
		return fail("query installed instances", err)
	}
	state = StateToolReady

	exists := strings.Contains(listing, name)
	if exists {
		logger.Info("instance already exists, skipping creation")
		s.console.Say("Instance %q already exists; reusing it.", name)
	} else {
		distribution, err := s.resolveDistribution(ctx, opts)
		if err != nil {
			return fail("choose distribution", err)
		}
		if err := s.client.Install(ctx, distribution, name); err != nil {
			return fail("install distribution", err)
		}
	}
	state = StateInstanceReady

	if err := s.client.SetDefault(ctx, name, s.policy); err != nil {
		return fail("set default instance", err)
	}
	state = StateDefaultSet

	if err := s.createUser(ctx, name, username, opts.NonInteractive); err != nil {
		return fail("create guest user", err)
	}
	state = StateUserCreated

	profile, err := s.resolveProfile(opts)
	if err != nil {
		return fail("resolve bootstrap profile", err)
	}
	for _, step := range profile.Steps {
		logger.Info("running bootstrap step", "step", step.Name)
		if _, err := s.client.RunIn(ctx, name, "root", step.Command); err != nil {
			return fail(fmt.Sprintf("bootstrap step %q", step.Name), err)
		}
	}
	state = StatePackagesInstalled

	state = StateDone
	logger.Info("provisioning complete", "state", state, "profile", profile.ID)
	s.console.Say("Instance %q is ready. Log in with: wsl -d %s -u %s", name, name, username)
	return nil
}

func (s *Sequencer) resolveIdentity(opts Options) (name, username string, err error) {
	name = strings.TrimSpace(opts.InstanceName)
	username = strings.TrimSpace(opts.Username)

	if opts.NonInteractive {
		if name == "" {
			name = DefaultInstanceName
		}
		if username == "" {
			username = DefaultUsername
		}
		return name, username, nil
	}

	if name == "" {
		if name, err = s.console.Prompt("Instance name", DefaultInstanceName); err != nil {
			return "", "", err
		}
	}
	if username == "" {
		if username, err = s.console.Prompt("Guest username", DefaultUsername); err != nil {
			return "", "", err
		}
	}
	if name == "" || username == "" {
		return "", "", console.ErrEmptyInput
	}
	return name, username, nil
}

func (s *Sequencer) resolveDistribution(ctx context.Context, opts Options) (string, error) {
	if d := strings.TrimSpace(opts.Distribution); d != "" {
		return d, nil
	}

	entries, err := s.client.AvailableDistributions(ctx)
	if err != nil {
		return "", err
	}
	if opts.NonInteractive {
		// Catalog order puts the recommended default first.
		return entries[0].Name, nil
	}

	options := make([]string, len(entries))
	for i, entry := range entries {
		label := entry.Name
		if entry.FriendlyName != "" && entry.FriendlyName != entry.Name {
			label = fmt.Sprintf("%s (%s)", entry.Name, entry.FriendlyName)
		}
		options[i] = label
	}
	choice, err := s.console.Select("Available distributions:", options)
	if err != nil {
		return "", err
	}
	return entries[choice].Name, nil
}

// createUser captures the credential immediately before the one command that
// consumes it and wipes it on every exit path.
func (s *Sequencer) createUser(ctx context.Context, instance, username string, nonInteractive bool) error {
	if _, err := s.client.RunIn(ctx, instance, "root", "id -u "+username); err == nil {
		s.logger.Info("guest user already exists, skipping creation", "user", username)
		return nil
	}

	if nonInteractive {
		return fmt.Errorf("guest user %q does not exist and a password cannot be captured non-interactively", username)
	}

	secret, err := s.console.ReadSecret(fmt.Sprintf("Password for %s", username))
	if err != nil {
		return err
	}
	cred := console.NewCredential(username, secret)
	defer cred.Wipe()

	return s.client.CreateUser(ctx, instance, cred.Username, cred.Secret())
}

func (s *Sequencer) resolveProfile(opts Options) (bootstrap.Profile, error) {
	id := strings.TrimSpace(opts.ProfileID)
	if id == "" {
		id = bootstrap.DefaultProfileID
	}
	return s.profiles.Get(id)
}
