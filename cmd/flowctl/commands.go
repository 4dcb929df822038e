/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/acronis/go-flowctl/internal/cmdrunner"
	"github.com/acronis/go-flowctl/log"
	"github.com/acronis/go-flowctl/semaphore"
)

type rootFlags struct {
	configPath string
	timeout    time.Duration
	retries    int
}

type batchFlags struct {
	parallel int
	shell    string
}

// execFunc is replaced in tests.
var execFunc cmdrunner.ExecFunc = cmdrunner.ExecProcess

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:           "flowctl",
		Short:         "Run commands with retries, timeouts and bounded parallelism",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to YAML or JSON configuration file")
	rootCmd.PersistentFlags().DurationVarP(&flags.timeout, "timeout", "t", 0, "timeout of a single attempt (0 means no timeout)")
	rootCmd.PersistentFlags().IntVarP(&flags.retries, "retries", "r", 0, "number of retries after the first attempt")

	rootCmd.AddCommand(newRunCommand(flags), newBatchCommand(flags))
	return rootCmd
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags] -- command [args...]",
		Short: "Run a single command, retrying it on failure",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, closeLogger := log.NewLogger(cfg.Log)
			defer closeLogger()

			runner, err := newRunner(cmd, cfg, flags, logger, 1)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runner.RunOne(ctx, args)
		},
	}
}

func newBatchCommand(rootFlags *rootFlags) *cobra.Command {
	flags := &batchFlags{}
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Run commands read from stdin (one per line) with bounded parallelism",
		Long: "Run commands read from stdin (one per line) with bounded parallelism.\n" +
			"The first interrupt drops the commands that are still waiting or not read yet, the second one stops the running ones.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadAppConfig(rootFlags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, closeLogger := log.NewLogger(cfg.Log)
			defer closeLogger()

			parallel := cfg.Semaphore.Capacity
			if cmd.Flags().Changed("parallel") {
				parallel = flags.parallel
			}
			if parallel < 1 {
				return fmt.Errorf("parallel should be >= 1, got %d", parallel)
			}
			runner, err := newRunner(cmd, cfg, rootFlags, logger, parallel, cmdrunner.Opts{Shell: flags.shell})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigCh := make(chan os.Signal, 2)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go handleBatchSignals(ctx, sigCh, runner, cancel, logger)

			summary, err := runner.RunBatch(ctx, cmd.InOrStdin())
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "succeeded: %d, failed: %d, purged: %d\n",
				summary.Succeeded, summary.Failed, summary.Purged)
			if err != nil {
				return err
			}
			if summary.Failed > 0 || summary.Purged > 0 {
				return fmt.Errorf("%d command(s) failed, %d purged", summary.Failed, summary.Purged)
			}
			return nil
		},
	}
	batchCmd.Flags().IntVarP(&flags.parallel, "parallel", "p", semaphore.DefaultCapacity,
		"maximum number of commands running at once")
	batchCmd.Flags().StringVar(&flags.shell, "shell", "/bin/sh", "shell used to run every line")
	return batchCmd
}

func handleBatchSignals(
	ctx context.Context, sigCh <-chan os.Signal, runner *cmdrunner.Runner, cancel context.CancelFunc, logger log.FieldLogger,
) {
	purged := false
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigCh:
			if !purged {
				purged = true
				n := runner.Purge()
				logger.Warn("dropping queued commands, interrupt again to stop running ones",
					log.String("signal", sig.String()), log.Int("purged", n))
				continue
			}
			logger.Warn("stopping running commands", log.String("signal", sig.String()))
			cancel()
			return
		}
	}
}

func newRunner(
	cmd *cobra.Command, cfg *appConfig, flags *rootFlags, logger log.FieldLogger, parallel int, opts ...cmdrunner.Opts,
) (*cmdrunner.Runner, error) {
	retryOpts := cfg.Retry.Options()
	if cmd.Flags().Changed("timeout") {
		retryOpts.Timeout = flags.timeout
	}
	if cmd.Flags().Changed("retries") {
		retryOpts.Retries = flags.retries
	}
	sem, err := semaphore.NewWithOpts(parallel, semaphore.Options{Logger: logger})
	if err != nil {
		return nil, err
	}
	var runnerOpts cmdrunner.Opts
	if len(opts) > 0 {
		runnerOpts = opts[0]
	}
	runnerOpts.Exec = execFunc
	return cmdrunner.New(sem, retryOpts, logger, runnerOpts), nil
}
