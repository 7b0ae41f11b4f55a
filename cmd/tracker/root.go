package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tracker/internal/cache"
	"tracker/internal/config"
	"tracker/internal/dashboard"
	"tracker/internal/henrik"
	"tracker/internal/logging"
	"tracker/internal/match"
	"tracker/internal/metrics"
	"tracker/internal/reconcile"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Valorant match-history dashboard",
	Long:  "Serve the match-history dashboard, run season-cleanup jobs and look players up from the terminal.",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		cfg = loaded
		logging.SetLevel(cfg.LogLevel)
		return nil
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(lookupCmd)
}

// newEngine builds the reconcile engine over store for the configured season.
func newEngine(store cache.Store, m *metrics.Collector) (*reconcile.Engine, error) {
	season, err := match.NewSeason(cfg.CurrentSeasonID)
	if err != nil {
		return nil, err
	}
	return reconcile.NewEngine(store, season, logging.Logger(), m, cfg.PageSize), nil
}

// newService wires the provider client, engine and session registry.
func newService(store cache.Store, m *metrics.Collector) (*dashboard.Service, *dashboard.Sessions, error) {
	log := logging.Logger()
	if !cfg.HasAPIKey() {
		log.Warnf("HENRIK_API_KEY is not set; player lookups will fail")
	}

	engine, err := newEngine(store, m)
	if err != nil {
		return nil, nil, err
	}

	client := henrik.NewClient(cfg.HenrikBaseURL, cfg.HenrikAPIKey, cfg.HenrikRatePerMinute, henrik.WithMetrics(m))
	sessions := dashboard.NewSessions(cfg.SessionTTL)
	return dashboard.NewService(client, engine, sessions, cfg.DefaultRegion, log), sessions, nil
}
