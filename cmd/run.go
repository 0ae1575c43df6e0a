package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/drt/app"
	"github.com/kilianp07/drt/config"
	"github.com/kilianp07/drt/infra/logger"
	"github.com/kilianp07/drt/pkg/export"
)

var runFlags struct {
	requests string
	out      string
	runID    string
	maxTicks int64
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a dispatch simulation and write the reports",
	RunE:  run,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.requests, "requests", "", "demand file, overrides run.requests")
	f.StringVar(&runFlags.out, "out", "", "report directory, overrides run.output_dir")
	f.StringVar(&runFlags.runID, "run-id", "", "run id, overrides run.run_id")
	f.Int64Var(&runFlags.maxTicks, "max-ticks", 0, "tick limit, overrides run.max_ticks")
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	if _, err := svc.LoadRequests(cfg.Run.Requests); err != nil {
		return err
	}
	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	return export.WriteJSON(cmd.OutOrStdout(), res)
}

// loadRunConfig reads the configuration file and applies the flag
// overrides before validation.
func loadRunConfig() (*config.Config, error) {
	cfg, err := config.Read(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if runFlags.requests != "" {
		cfg.Run.Requests = runFlags.requests
	}
	if runFlags.out != "" {
		cfg.Run.OutputDir = runFlags.out
	}
	if runFlags.runID != "" {
		cfg.Run.RunID = runFlags.runID
	}
	if runFlags.maxTicks > 0 {
		cfg.Run.MaxTicks = runFlags.maxTicks
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
