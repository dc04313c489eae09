// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"code.hybscloud.com/msq/internal/stress"
)

func cmdRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "msqcheck",
		Short:         "Lock-free queue validation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.HiddenDefaultCmd = true
	root.AddCommand(cmdRun())
	return root
}

type runner struct {
	cfg      stress.Config
	file     string
	dump     string
	logLevel string
}

func cmdRun() *cobra.Command {
	r := runner{cfg: stress.DefaultConfig()}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a validation workload",
		Args:  cobra.NoArgs,
		Example: `  msqcheck run --goroutines 2 --items 1000000
  msqcheck run --strategy ping-pong --items 10000000
  msqcheck run --config stress.yml --event-log 65536 --dump trace.log`,
		RunE: r.run,
	}

	f := cmd.Flags()
	f.StringVar(&r.file, "config", "", "YAML configuration `file`; flags override its values")
	f.IntVar(&r.cfg.Goroutines, "goroutines", r.cfg.Goroutines, "Number of worker goroutines")
	f.IntVar(&r.cfg.Items, "items", r.cfg.Items, "Items pushed per goroutine")
	f.StringVar((*string)(&r.cfg.Strategy), "strategy", string(r.cfg.Strategy), "Workload: push-all-pop-all, ping-pong, random or bounded")
	f.StringVar((*string)(&r.cfg.Structure), "structure", string(r.cfg.Structure), "Container under test: queue or stack")
	f.IntVar(&r.cfg.Burst, "burst", r.cfg.Burst, "Items per round for the bounded workload")
	f.Uint64Var(&r.cfg.Seed, "seed", r.cfg.Seed, "Seed for the random workload")
	f.IntVar(&r.cfg.EventLog, "event-log", r.cfg.EventLog, "Event log entries kept for postmortem; 0 disables")
	f.Uint64Var(&r.cfg.RetryLimit, "retry-limit", r.cfg.RetryLimit, "Retry bound per operation; 0 uses the library default")
	f.DurationVar(&r.cfg.Timeout, "timeout", r.cfg.Timeout, "Abort the run after this duration")
	f.StringVar(&r.dump, "dump", "", "Write the event log of a failed run to `file` (default stderr)")
	f.StringVar(&r.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	return cmd
}

func (r *runner) run(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd.ErrOrStderr(), r.logLevel)
	if err != nil {
		return err
	}

	cfg := r.cfg
	if r.file != "" {
		if cfg, err = stress.LoadConfig(r.file); err != nil {
			logger.Error("Unable to load configuration", "file", r.file, "err", err)
			return err
		}
		r.override(cmd, &cfg)
	}

	logger.Info("Starting run",
		"structure", cfg.Structure,
		"strategy", cfg.Strategy,
		"goroutines", cfg.Goroutines,
		"items", cfg.Items)
	logger.Debug("Configuration", "config", fmt.Sprintf("%+v", cfg))

	rep, err := stress.Run(cmd.Context(), cfg)
	if rep == nil {
		logger.Error("Unable to start run", "err", err)
		return err
	}
	logger.Info("Run finished",
		"pushed", rep.Pushed,
		"popped", rep.Popped,
		"max_size", rep.MaxSize,
		"elapsed", rep.Elapsed)
	if err == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	}

	for _, failure := range rep.Failures() {
		logger.Error("Validation failed", "reason", failure)
	}
	if len(rep.Events) > 0 {
		if derr := r.writeDump(cmd.ErrOrStderr(), rep); derr != nil {
			logger.Error("Unable to write event log", "file", r.dump, "err", derr)
		} else {
			logger.Info("Event log written", "entries", len(rep.Events), "file", r.dump)
		}
	}
	return err
}

// override applies explicitly set flags on top of a loaded file.
func (r *runner) override(cmd *cobra.Command, cfg *stress.Config) {
	f := cmd.Flags()
	set := func(name string, apply func()) {
		if f.Changed(name) {
			apply()
		}
	}
	set("goroutines", func() { cfg.Goroutines = r.cfg.Goroutines })
	set("items", func() { cfg.Items = r.cfg.Items })
	set("strategy", func() { cfg.Strategy = r.cfg.Strategy })
	set("structure", func() { cfg.Structure = r.cfg.Structure })
	set("burst", func() { cfg.Burst = r.cfg.Burst })
	set("seed", func() { cfg.Seed = r.cfg.Seed })
	set("event-log", func() { cfg.EventLog = r.cfg.EventLog })
	set("retry-limit", func() { cfg.RetryLimit = r.cfg.RetryLimit })
	set("timeout", func() { cfg.Timeout = r.cfg.Timeout })
}

func (r *runner) writeDump(stderr io.Writer, rep *stress.Report) error {
	if r.dump == "" {
		return rep.Dump(stderr)
	}
	f, err := os.Create(r.dump)
	if err != nil {
		return err
	}
	if err := rep.Dump(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
