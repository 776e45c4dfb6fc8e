package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/konkayan987-blip/Dashbord-condensate/internal/config"
	"github.com/konkayan987-blip/Dashbord-condensate/internal/pipeline"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "condensate",
	Short: "Condensate recovery dashboard",
	Long: `condensate serves a read-only dashboard over the condensate recovery sheet:
average recovery against target, a status-split trend, the filtered data
table and a CSV download. The export and summary commands run the same
pipeline once from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (built-in defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
}

// setupLogging installs a JSON slog handler on stderr at level.
func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	slog.Info("config loaded",
		"path", cfgFile,
		"url", cfg.Source.URL,
		"cache_ttl", cfg.Source.CacheTTL,
		"date_policy", cfg.Source.DatePolicy,
	)
	return cfg, nil
}

// filterFlags are the criteria flags shared by export and summary.
type filterFlags struct {
	start    string
	end      string
	boilers  []string
	statuses []string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "first day to include, YYYY-MM-DD (default: earliest in data)")
	cmd.Flags().StringVar(&f.end, "end", "", "last day to include, YYYY-MM-DD (default: latest in data)")
	cmd.Flags().StringSliceVar(&f.boilers, "boiler", nil, "boilers to include (repeatable or comma-separated)")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, `statuses to include: "Below Target", "On Target"`)
}

func (f *filterFlags) criteria() (pipeline.Criteria, error) {
	return pipeline.NewCriteria(f.start, f.end, f.boilers, f.statuses)
}
