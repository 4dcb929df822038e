/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cmdrunner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"github.com/acronis/go-flowctl/log"
	"github.com/acronis/go-flowctl/retry"
	"github.com/acronis/go-flowctl/semaphore"
)

// ExecFunc runs a single command. It must stop the command when ctx is done.
type ExecFunc func(ctx context.Context, argv []string) error

// Runner runs commands with retries and, for batches, bounded parallelism.
type Runner struct {
	exec      ExecFunc
	sem       *semaphore.Semaphore
	retryOpts retry.Options
	shell     string
	logger    log.FieldLogger

	purgeRequested atomic.Bool // set by Purge, cleared when a new batch starts
}

// Opts contains optional parameters for constructing Runner.
type Opts struct {
	// Exec runs a command. Commands are started as OS processes if nil.
	Exec ExecFunc

	// Shell is used to run batch lines ("/bin/sh" if empty).
	Shell string
}

// Summary describes the outcome of a batch.
type Summary struct {
	Succeeded int
	Failed    int
	Purged    int
}

// New creates a new Runner.
func New(sem *semaphore.Semaphore, retryOpts retry.Options, logger log.FieldLogger, opts Opts) *Runner {
	if opts.Exec == nil {
		opts.Exec = ExecProcess
	}
	if opts.Shell == "" {
		opts.Shell = "/bin/sh"
	}
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	retryOpts.Logger = logger
	return &Runner{exec: opts.Exec, sem: sem, retryOpts: retryOpts, shell: opts.Shell, logger: logger}
}

// RunOne runs a single command through a retry chain.
func (r *Runner) RunOne(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("command is not specified")
	}
	opts := r.retryOpts
	opts.Name = argv[0]
	return retry.DoErr(ctx, func(ctx context.Context) error {
		return r.exec(ctx, argv)
	}, opts)
}

// RunBatch runs every non-empty line of input as a shell command.
// At most the semaphore's capacity of commands run at once; the rest wait in arrival order.
// Commands that are still waiting when the batch is purged, or are read after that, are counted as purged
// and never started. Input is still read to the end so that the summary covers every line.
func (r *Runner) RunBatch(ctx context.Context, input io.Reader) (Summary, error) {
	var succeeded, failed, purged atomic.Int32
	eg, egCtx := errgroup.WithContext(ctx)
	r.purgeRequested.Store(false)

	scanner := bufio.NewScanner(input)
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		lineNum++
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if r.purgeRequested.Load() {
			purged.Inc()
			continue
		}
		name := fmt.Sprintf("line %d", lineNum)
		eg.Go(func() error {
			if err := r.sem.Acquire(egCtx); err != nil {
				if errors.Is(err, semaphore.ErrPurged) {
					purged.Inc()
					return nil
				}
				return err
			}
			defer r.sem.Release()
			if r.purgeRequested.Load() {
				purged.Inc()
				return nil
			}

			opts := r.retryOpts
			opts.Name = name
			err := retry.DoErr(egCtx, func(ctx context.Context) error {
				return r.exec(ctx, []string{r.shell, "-c", line})
			}, opts)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				failed.Inc()
				return nil
			}
			succeeded.Inc()
			return nil
		})
	}
	scanErr := scanner.Err()
	waitErr := eg.Wait()

	summary := Summary{Succeeded: int(succeeded.Load()), Failed: int(failed.Load()), Purged: int(purged.Load())}
	r.logger.Info("batch finished",
		log.Int("succeeded", summary.Succeeded), log.Int("failed", summary.Failed), log.Int("purged", summary.Purged))

	if scanErr != nil {
		return summary, fmt.Errorf("read batch input: %w", scanErr)
	}
	return summary, waitErr
}

// Purge drops the batch commands that are still waiting for their turn and stops starting new ones
// until the next RunBatch call. Running commands are not affected.
// It returns the number of commands dropped from the semaphore queue.
func (r *Runner) Purge() int {
	r.purgeRequested.Store(true)
	return r.sem.Purge()
}

// ExecProcess starts argv as an OS process, killing it when ctx is done.
func ExecProcess(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...) // nolint: gosec
	out, err := cmd.CombinedOutput()
	if err != nil {
		if len(out) > 0 {
			return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
		}
		return err
	}
	return nil
}
