// cmd/harvester/root.go
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github-heat-harvester/internal/config"
	"github-heat-harvester/internal/github"
	"github-heat-harvester/internal/harvester"
	"github-heat-harvester/internal/sampler"
	"github-heat-harvester/internal/store/sqlite"
	"github-heat-harvester/internal/window"
)

// Flag values. The mode flags are mutually exclusive; the mode is fixed for
// the process lifetime.
var (
	databasePath     string
	iterations       int
	populateComments bool
	exportReport     bool
	serveAddr        string
)

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "Harvest GitHub issues locked for heated discussion",
	Long: `Harvester probes GitHub's public repository listing at random offsets for
issues that were closed and locked with the reason "too heated", persists
them to an embedded SQLite datastore, enriches them with their comments,
and exports commit-activity windows around toxic comments as CSV.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVarP(&databasePath, "database-url", "d", "", "path to the SQLite datastore (required)")
	rootCmd.Flags().IntVarP(&iterations, "iterations", "i", 0, "number of discovery probes to run")
	rootCmd.Flags().BoolVar(&populateComments, "populate-comments", false, "retrieve and store comments for all stored issues")
	rootCmd.Flags().BoolVar(&exportReport, "export-report", false, "write the commit-activity CSV report to stdout")
	rootCmd.Flags().StringVar(&serveAddr, "serve", "", "serve the read API on this address instead of harvesting")

	_ = rootCmd.MarkFlagRequired("database-url")
	rootCmd.MarkFlagsMutuallyExclusive("iterations", "populate-comments", "export-report", "serve")
}

func run(cmd *cobra.Command, _ []string) error {
	// Logs go to stderr so the export mode can write CSV to stdout.
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully")

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := sqlite.New(databasePath)
	if err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer st.Close()
	logger.Info("Datastore ready", "path", databasePath)

	limiter := rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	ghClient := github.NewClient(cfg.GithubToken, cfg.UserAgent, limiter, logger)
	windows := window.New(ghClient, cfg.MaxPages, cfg.MaxRetries, logger)
	smp := sampler.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	h := harvester.New(st, ghClient, smp, windows, cfg.MaxPages, cfg.MaxRetries, logger)

	switch {
	case serveAddr != "":
		return serveAPI(ctx, st, serveAddr, logger)
	case populateComments:
		logger.Info("Retrieving and storing comments for all stored issues")
		return h.EnrichComments(ctx)
	case exportReport:
		logger.Info("Exporting commit-activity report")
		return h.ExportReport(ctx, os.Stdout)
	default:
		if iterations <= 0 {
			return errors.New("--iterations is required unless another mode is selected")
		}
		logger.Info("Starting discovery", "iterations", iterations)
		return h.Discover(ctx, iterations)
	}
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
