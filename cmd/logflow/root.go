package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justin4957/logflow-monitor/internal/analyzer"
	"github.com/justin4957/logflow-monitor/internal/config"
	"github.com/justin4957/logflow-monitor/internal/dashboard"
	"github.com/justin4957/logflow-monitor/internal/parser"
	"github.com/justin4957/logflow-monitor/internal/report"
	"github.com/justin4957/logflow-monitor/internal/stream"
	"github.com/justin4957/logflow-monitor/pkg/models"
)

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "logflow",
		Short: "LogFlow Monitor - live HTTP traffic stats and alerts",
		Long: `LogFlow Monitor tails an access log (stdin by default), prints traffic
stats on a fixed cadence and warns when the request rate over the trailing
window goes above the threshold.

Log lines look like "HH:MM:SS METHOD /path".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			return runMonitor(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringP("config", "c", "", "YAML config file")
	flags.StringP("logfile", "l", defaults.LogPath, "log file to tail (default stdin)")
	flags.IntP("interval", "i", defaults.Interval, "seconds between stats reports")
	flags.IntP("backlog", "b", defaults.Backlog, "trailing window in seconds")
	flags.Float64P("threshold", "t", defaults.Threshold, "alert threshold in requests per second")
	flags.Int("stride", defaults.Stride, "most bytes read per call")
	flags.Bool("watch", defaults.WatchFileEvents, "wake on file writes instead of sleeping at end of file")
	flags.Bool("dashboard", defaults.DashboardConfig.Enabled, "serve the web dashboard")
	flags.String("dashboard-addr", defaults.DashboardAddr(), "dashboard listen address")

	return cmd
}

// resolveConfig layers flags over LOGFLOW_* environment variables over the
// config file over defaults
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	fileCfg, err := config.LoadConfigFile(configFile)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetEnvPrefix("LOGFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("logfile", fileCfg.LogPath)
	v.SetDefault("interval", fileCfg.Interval)
	v.SetDefault("backlog", fileCfg.Backlog)
	v.SetDefault("threshold", fileCfg.Threshold)
	v.SetDefault("stride", fileCfg.Stride)
	v.SetDefault("watch", fileCfg.WatchFileEvents)
	v.SetDefault("dashboard", fileCfg.DashboardConfig.Enabled)
	v.SetDefault("dashboard-addr", fileCfg.DashboardAddr())

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := &config.Config{
		LogPath:         v.GetString("logfile"),
		Interval:        v.GetInt("interval"),
		Backlog:         v.GetInt("backlog"),
		Threshold:       v.GetFloat64("threshold"),
		Stride:          v.GetInt("stride"),
		WatchFileEvents: v.GetBool("watch"),
		DashboardConfig: config.DashboardConfig{
			Enabled: v.GetBool("dashboard"),
		},
	}

	host, port, err := net.SplitHostPort(v.GetString("dashboard-addr"))
	if err != nil {
		return nil, fmt.Errorf("invalid dashboard address: %w", err)
	}
	cfg.DashboardConfig.Host = host
	if cfg.DashboardConfig.Port, err = strconv.Atoi(port); err != nil {
		return nil, fmt.Errorf("invalid dashboard port %q: %w", port, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openInput opens the log file, or stdin when no path is set
func openInput(path string) (*os.File, error) {
	if path == "" {
		return os.Stdin, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read log file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("cannot read log file %s: is a directory", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read log file: %w", err)
	}
	return f, nil
}

func runMonitor(cmd *cobra.Command, cfg *config.Config) error {
	input, err := openInput(cfg.LogPath)
	if err != nil {
		return err
	}
	if input != os.Stdin {
		defer input.Close()
	}

	source, err := stream.NewFileSource(input)
	if err != nil {
		return err
	}
	defer source.Close()

	logger := log.New(cmd.ErrOrStderr(), "", 0)
	printer := report.NewPrinter(cmd.OutOrStdout())
	stats := analyzer.NewTrafficStats(int64(cfg.Backlog), cfg.Threshold, printer)

	opts := stream.Options{
		Interval: cfg.ReportInterval(),
		Stride:   cfg.Stride,
		Logger:   logger,
	}

	if cfg.WatchFileEvents {
		waiter, err := stream.NewFileEventWaiter(cfg.LogPath)
		if err != nil {
			return err
		}
		defer waiter.Close()
		opts.Idle = waiter
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	var dash *dashboard.Server
	dashDone := make(chan struct{})
	if cfg.DashboardConfig.Enabled {
		dash = dashboard.NewServer(cfg.DashboardAddr())
		go func() {
			defer close(dashDone)
			if err := dash.Start(ctx); err != nil {
				logger.Printf("Dashboard server error: %v", err)
			}
		}()
	} else {
		close(dashDone)
	}

	opts.OnReport = func(r models.StatsReport) {
		printer.PrintStats(r)
		if dash != nil {
			dash.Publish(r)
		}
	}

	ls := stream.NewLogStream(source, parser.NewParser(), stats, opts)
	err = ls.Run(ctx)
	cancel()
	<-dashDone

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Printf("Shutting down after %d lines (%d ignored)", ls.Accepted(), ls.Rejected())
		return nil
	}
	return err
}
