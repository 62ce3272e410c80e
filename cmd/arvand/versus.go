package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/IlikeChooros/go-arvand/pkg/bench"
	"github.com/IlikeChooros/go-arvand/pkg/config"
	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

type versusOptions struct {
	first, second string
	runs, workers int
	logLevel      string
}

func newVersusCmd() *cobra.Command {
	var opts versusOptions
	cmd := &cobra.Command{
		Use:   "versus --first A.yaml --second B.yaml TASK...",
		Short: "Compare two planner configurations on a suite of tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersus(cmd, args, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.first, "first", "", "YAML configuration of the first planner")
	f.StringVar(&opts.second, "second", "", "YAML configuration of the second planner")
	f.IntVarP(&opts.runs, "runs", "n", 1, "runs per task, each with its own seed")
	f.IntVarP(&opts.workers, "workers", "w", 2, "tasks benchmarked in parallel")
	f.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	_ = cmd.MarkFlagRequired("first")
	_ = cmd.MarkFlagRequired("second")
	return cmd
}

func loadResolved(path string) (*config.Settings, error) {
	f, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return f.Resolve()
}

func runVersus(cmd *cobra.Command, paths []string, opts versusOptions) error {
	logger, err := logging.New(logging.Config{Level: opts.logLevel, Output: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	first, err := loadResolved(opts.first)
	if err != nil {
		return fmt.Errorf("first: %w", err)
	}
	second, err := loadResolved(opts.second)
	if err != nil {
		return fmt.Errorf("second: %w", err)
	}

	entries := make([]bench.Entry, 0, len(paths))
	for _, p := range paths {
		t, err := task.LoadFile(p)
		if err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		entries = append(entries, bench.Entry{Name: name, Task: t})
	}

	w := cmd.OutOrStdout()
	out := termenv.NewOutput(w)
	listener := bench.NewListener().OnRun(func(info bench.RunInfo) {
		fmt.Fprintf(w, "[%d] %-20s seed %-3d first %-4d second %-4d %s\n",
			info.Finished, info.Task, info.Seed, info.First.Cost, info.Second.Cost,
			out.String(info.Outcome.String()).Bold())
	})

	summary, err := bench.NewVersus(first, second, entries).
		Setup(opts.runs, opts.workers).
		SetLogger(logger).
		SetListener(listener).
		Run(cmd.Context())
	if err != nil {
		return err
	}
	printVersus(w, summary)
	return nil
}

func printVersus(w io.Writer, s bench.Summary) {
	out := termenv.NewOutput(w)
	fmt.Fprintf(w, "%s %d runs on %d workers\n", out.String("summary:").Bold(), s.Runs, s.Workers)
	fmt.Fprintf(w, "  first  %s wins, %d solved\n", out.String(fmt.Sprint(s.FirstWins)).Foreground(out.Color("2")), s.FirstSolved)
	fmt.Fprintf(w, "  second %s wins, %d solved\n", out.String(fmt.Sprint(s.SecondWins)).Foreground(out.Color("4")), s.SecondSolved)
	fmt.Fprintf(w, "  ties   %d\n", s.Ties)
}
