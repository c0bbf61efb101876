package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/nomad-transcription/internal/config"
	"github.com/codebuildervaibhav/nomad-transcription/internal/handlers"
	"github.com/codebuildervaibhav/nomad-transcription/internal/logging"
	"github.com/codebuildervaibhav/nomad-transcription/internal/telemetry"
)

type appState struct {
	configPath string
	envFile    string
	verbose    bool
	jsonLogs   bool

	cfg       *config.Config
	logger    *zap.Logger
	logBuffer *logging.LogBuffer
}

func newRootCmd() *cobra.Command {
	app := &appState{
		configPath: "config/config.yaml",
		envFile:    ".env",
	}

	cmd := &cobra.Command{
		Use:           "nomad-server",
		Short:         "Transcription job server with pluggable speech-to-text engines",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return app.setup()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app.logger != nil {
				_ = app.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runServe(cmd.Context())
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&app.configPath, "config", app.configPath, "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", app.envFile, "Path to .env file with credentials")
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")

	cmd.AddCommand(newEnginesCmd(app))
	cmd.AddCommand(newWakeCmd(app))

	return cmd
}

func (a *appState) setup() error {
	a.logBuffer = logging.NewLogBuffer(0)
	logger, err := logging.New(logging.Options{Verbose: a.verbose, JSON: a.jsonLogs, Extra: a.logBuffer})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.logger = logger

	cfg, err := config.Load(a.configPath, a.envFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *appState) runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:       a.cfg.Telemetry.OTLPEndpoint,
		Insecure:       a.cfg.Telemetry.Insecure,
		Interval:       a.cfg.Telemetry.Interval,
		ServiceVersion: version,
	}, a.logger.Named("telemetry"))
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			a.logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	svc, err := buildServices(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	return runServer(ctx, svc, a.logBuffer)
}

func newEnginesCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "Print transcription engines with their current availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			monitor, err := newMonitor(app.cfg, app.logger)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"engines": newCatalog(app.cfg, monitor).List(commandContext(cmd)),
			})
		},
	}
}

func newWakeCmd(app *appState) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "wake",
		Short: "Send a wake signal to the WYNONA GPU server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			monitor, err := newMonitor(app.cfg, app.logger)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(commandContext(cmd), timeout)
			defer cancel()

			result, err := monitor.Wake(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", result, handlers.WakeMessage(result))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Upper bound for probe plus wake")
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
