package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/IlikeChooros/go-arvand/pkg/config"
	"github.com/IlikeChooros/go-arvand/pkg/logging"
	"github.com/IlikeChooros/go-arvand/pkg/metrics"
	"github.com/IlikeChooros/go-arvand/pkg/planner"
	"github.com/IlikeChooros/go-arvand/pkg/task"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var errNoPlan = errors.New("no plan found")

type options struct {
	configPath  string
	wa          string
	shared      string
	mrw         []string
	planFile    string
	iterative   bool
	seeds       []int64
	timeLimit   float64
	logLevel    string
	logJSON     bool
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "arvand [flags] TASK",
		Short: "Satisficing planner combining deferred WA* and Monte-Carlo random walks",
		Long: `arvand solves the planning task in TASK, a YAML file, with a portfolio of
deferred-evaluation WA* iterations and Monte-Carlo random walk workers.

  arvand --wa "-heur FF -pref FF -weight_list [-1,5,3,2,1]" --mrw "-walk_type MDA" task.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML planner configuration, flags override its values")
	f.StringVar(&opts.wa, "wa", "", "WA* configuration string")
	f.StringVar(&opts.shared, "mrw-shared", "", "shared MRW configuration string")
	f.StringArrayVar(&opts.mrw, "mrw", nil, "MRW configuration string, repeat for several configurations")
	f.StringVarP(&opts.planFile, "plan-file", "o", "", "write plans to this file, suffixed with the plan number when iterative")
	f.BoolVarP(&opts.iterative, "iterative", "i", false, "keep improving after the first plan")
	f.Int64SliceVar(&opts.seeds, "seed", nil, "random seeds, consumed in order")
	f.Float64VarP(&opts.timeLimit, "time-limit", "t", 0, "wall-clock limit in seconds, 0 for none")
	f.StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")
	f.BoolVar(&opts.logJSON, "log-json", false, "log in JSON")
	f.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")

	cmd.AddCommand(newVersusCmd())
	return cmd
}

// Reads the configuration file, if any, and applies the flags set on the command line
func loadSettings(cmd *cobra.Command, opts options) (*config.Settings, error) {
	file := &config.File{}
	if opts.configPath != "" {
		var err error
		if file, err = config.LoadFile(opts.configPath); err != nil {
			return nil, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("wa") {
		file.WA = opts.wa
	}
	if flags.Changed("mrw-shared") {
		file.Shared = opts.shared
	}
	if flags.Changed("mrw") {
		file.MRW = opts.mrw
	}
	if flags.Changed("plan-file") {
		file.PlanFile = opts.planFile
	}
	if flags.Changed("iterative") {
		file.Iterative = opts.iterative
	}
	if flags.Changed("seed") {
		file.Seeds = opts.seeds
	}
	if flags.Changed("time-limit") {
		file.TimeLimit = opts.timeLimit
	}
	if flags.Changed("log-level") || file.Log.Level == "" {
		file.Log.Level = opts.logLevel
	}
	if flags.Changed("log-json") {
		file.Log.JSON = opts.logJSON
	}
	return file.Resolve()
}

func run(cmd *cobra.Command, taskPath string, opts options) error {
	settings, err := loadSettings(cmd, opts)
	if err != nil {
		return err
	}
	settings.Log.Output = cmd.ErrOrStderr()
	logger, err := logging.New(settings.Log)
	if err != nil {
		return err
	}
	logger = logger.With("run", uuid.NewString())

	t, err := task.LoadFile(taskPath)
	if err != nil {
		return fmt.Errorf("loading %s: %w", taskPath, err)
	}
	logger.Info("task loaded",
		"path", taskPath,
		"variables", len(t.Vars),
		"operators", len(t.Operators),
	)

	reg := prometheus.NewRegistry()
	collectors := metrics.New(reg)
	if opts.metricsAddr != "" {
		_, shutdown, err := serveMetrics(opts.metricsAddr, reg, logger)
		if err != nil {
			return err
		}
		defer shutdown()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := planner.New(t, settings).
		SetLogger(logger).
		SetMetrics(collectors).
		Run(ctx)
	if err != nil {
		return err
	}
	printSummary(cmd.OutOrStdout(), res)
	if !res.Solved() {
		return errNoPlan
	}
	return nil
}

// Serves the registry on 'addr' until the returned shutdown func is called
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (net.Addr, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", ln.Addr().String(), "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", "error", err)
		}
	}
	return ln.Addr(), shutdown, nil
}

func printSummary(w io.Writer, res planner.Result) {
	out := termenv.NewOutput(w)
	label := func(s string) string {
		return out.String(s).Bold().String()
	}

	if !res.Solved() {
		fmt.Fprintf(w, "%s %s\n", label("status:"), out.String("unsolved").Foreground(out.Color("1")))
	} else {
		fmt.Fprintf(w, "%s %s\n", label("status:"), out.String("solved").Foreground(out.Color("2")))
		fmt.Fprintf(w, "%s %d (%d steps, %d plans found)\n", label("cost:"), res.Cost, len(res.Plan), res.Solutions)
		for _, op := range res.Plan {
			fmt.Fprintf(w, "  (%s)\n", op.Name)
		}
	}
	if res.WA != nil {
		fmt.Fprintf(w, "%s %d iterations, %d out of memory\n", label("wa*:"), res.WA.Iterations, res.WA.OutOfMemory)
	}
	for _, name := range slices.Sorted(maps.Keys(res.Workers)) {
		fmt.Fprintf(w, "%s %s\n", label(name+":"), res.Workers[name])
	}
	fmt.Fprintf(w, "%s %s\n", label("elapsed:"), res.Elapsed.Round(time.Millisecond))
}
