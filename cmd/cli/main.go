package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opsforge/wslforge/internal/bootstrap"
	"github.com/opsforge/wslforge/internal/console"
	"github.com/opsforge/wslforge/internal/features"
	"github.com/opsforge/wslforge/internal/logging"
	"github.com/opsforge/wslforge/internal/provision"
	"github.com/opsforge/wslforge/internal/wsl"
)

const defaultLogLevel = "warning"

func main() {
	var levelVar slog.LevelVar
	levelVar.Set(slog.LevelInfo)

	logger := logging.NewCLI(os.Stderr, &levelVar)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(logger, &levelVar)
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Warn("command interrupted", "error", err)
			os.Exit(130)
		}
		logger.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func newRootCommand(logger *slog.Logger, levelVar *slog.LevelVar) *cobra.Command {
	logLevel := defaultLogLevel

	root := &cobra.Command{
		Use:           "wslforge",
		Short:         "Provision and tear down WSL instances bootstrapped as Ansible control nodes",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := parseLogLevel(logLevel)
		if err != nil {
			return err
		}
		if levelVar != nil {
			levelVar.Set(level)
		}
		return nil
	}

	root.AddCommand(
		newProvisionCommand(logger),
		newRemoveCommand(logger),
		newListCommand(logger),
		newCatalogCommand(logger),
		newProfilesCommand(),
	)
	return root
}

func newWSLClient(logger *slog.Logger) *wsl.Client {
	return wsl.NewClient(wsl.NewRunner(), logger.With("component", "wsl"))
}

func newProvisionCommand(logger *slog.Logger) *cobra.Command {
	var opts provision.Options

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a WSL instance and bootstrap it as a control node",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "provision")

			profiles, err := bootstrap.NewRepository()
			if err != nil {
				return err
			}

			runner := wsl.NewRunner()
			sequencer := provision.NewSequencer(
				wsl.NewClient(runner, cmdLogger.With("component", "wsl")),
				features.NewProber(runner, cmdLogger.With("component", "features")),
				console.New(os.Stdin, cmd.OutOrStdout()),
				profiles,
				wsl.DefaultSetDefaultPolicy,
				cmdLogger,
			)

			if err := sequencer.Run(cmd.Context(), opts); err != nil {
				if errors.Is(err, provision.ErrUserDeclined) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.InstanceName, "name", "", "Instance name (prompted when omitted)")
	cmd.Flags().StringVar(&opts.Username, "user", "", "Guest username (prompted when omitted)")
	cmd.Flags().StringVar(&opts.Distribution, "distro", "", "Distribution to install (chosen from the catalog when omitted)")
	cmd.Flags().StringVar(&opts.ProfileID, "profile", bootstrap.DefaultProfileID, "Bootstrap profile to apply")
	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false, "Never prompt; fail on missing input")

	return cmd
}

func newRemoveCommand(logger *slog.Logger) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Unregister a WSL instance after typed confirmation",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdLogger := logger.With("command", "remove")

			decommissioner := provision.NewDecommissioner(
				newWSLClient(cmdLogger),
				console.New(os.Stdin, cmd.OutOrStdout()),
				cmdLogger,
			)

			if err := decommissioner.Run(cmd.Context(), name); err != nil {
				if errors.Is(err, provision.ErrUserDeclined) {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Instance to remove (prompted when omitted)")

	return cmd
}

func newListCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the installed instances as reported by the WSL tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newWSLClient(logger.With("command", "list"))
			listing, err := client.ListInstalled(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(listing, "\n"))
			return nil
		},
	}
}

func newCatalogCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the distributions available for installation",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newWSLClient(logger.With("command", "catalog"))
			entries, err := client.AvailableDistributions(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				marker := " "
				if entry.Default {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-24s %s\n", marker, entry.Name, entry.FriendlyName)
			}
			return nil
		},
	}
}

func newProfilesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in bootstrap profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := bootstrap.NewRepository()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, profile := range repo.List() {
				fmt.Fprintf(out, "%-18s %s (%d steps)\n", profile.ID, profile.Description, len(profile.Steps))
			}
			return nil
		},
	}
}

func parseLogLevel(value string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "err":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", value)
	}
}
