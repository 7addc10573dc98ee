// Package features probes and enables the Windows optional features the WSL
// platform depends on, through the dism.exe servicing tool.
package features

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/opsforge/wslforge/internal/wsl"
)

// Optional features required by the WSL platform.
const (
	SubsystemLinux         = "Microsoft-Windows-Subsystem-Linux"
	VirtualMachinePlatform = "VirtualMachinePlatform"
)

const dismExecutable = "dism.exe"

// ProbeError reports that a feature's state could not be queried or its
// enable command could not be issued. Callers decide whether the sequence
// continues degraded or aborts, depending on which feature failed.
type ProbeError struct {
	Feature string
	Err     error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe feature %s: %v", e.Feature, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// Prober queries and enables optional OS features.
type Prober struct {
	runner wsl.Runner
	logger *slog.Logger
}

// NewProber constructs a Prober over the provided runner.
func NewProber(runner wsl.Runner, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{runner: runner, logger: logger}
}

// Ensure checks whether the named feature is enabled and issues an enable
// command when it is not. Enabling is fire-and-forget: a platform feature
// commonly needs a reboot to take effect, which is outside this tool's
// control, so the new state is not verified.
func (p *Prober) Ensure(ctx context.Context, feature string) error {
	enabled, err := p.enabled(ctx, feature)
	if err != nil {
		return &ProbeError{Feature: feature, Err: err}
	}
	if enabled {
		p.logger.Info("feature already enabled", "feature", feature)
		return nil
	}

	p.logger.Info("enabling feature", "feature", feature)
	result, err := p.runner.Run(ctx, dismExecutable,
		"/online", "/Enable-Feature", "/FeatureName:"+feature, "/All", "/NoRestart")
	if err != nil {
		return &ProbeError{Feature: feature, Err: err}
	}
	if result.ExitCode != 0 {
		return &ProbeError{
			Feature: feature,
			Err:     fmt.Errorf("enable command failed with exit code %d: %s", result.ExitCode, strings.TrimSpace(result.Output())),
		}
	}

	p.logger.Warn("feature enabled, a reboot may be required before it takes effect", "feature", feature)
	return nil
}

func (p *Prober) enabled(ctx context.Context, feature string) (bool, error) {
	result, err := p.runner.Run(ctx, dismExecutable,
		"/online", "/Get-FeatureInfo", "/FeatureName:"+feature)
	if err != nil {
		return false, err
	}
	if result.ExitCode != 0 {
		return false, fmt.Errorf("state query failed with exit code %d: %s", result.ExitCode, strings.TrimSpace(result.Output()))
	}

	return parseFeatureState(result.Stdout), nil
}

// parseFeatureState scans a dism feature-info report for the state line.
// Anything other than an explicit enabled state counts as disabled.
func parseFeatureState(report string) bool {
	for _, line := range strings.Split(report, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		if strings.TrimSpace(key) != "State" {
			continue
		}
		return strings.EqualFold(strings.TrimSpace(value), "Enabled")
	}
	return false
}
