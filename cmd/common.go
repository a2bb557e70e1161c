package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/synthlab/alphalog/internal/app"
	"github.com/synthlab/alphalog/internal/tracker"
	"github.com/synthlab/alphalog/pkg/config"
	"go.uber.org/zap"
)

// loadConfig reads .env when present, then the environment, and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	// A missing .env is fine; the environment alone is enough.
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}

	return cfg, logger, nil
}

// withComponents builds the shared components, runs fn and releases them.
// Read-only commands pass mirror=false so they never touch the mirror backend.
func withComponents(ctx context.Context, mirror bool, fn func(*config.Config, *app.Components) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	if !mirror {
		cfg.MirrorMode = config.MirrorModeNone
	}

	components, err := app.BuildComponents(ctx, cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("build components: %w", err)
	}
	defer components.Close(logger)

	return fn(cfg, components)
}

func jsonOutput(cmd *cobra.Command) bool {
	asJSON, _ := cmd.Flags().GetBool("json")
	return asJSON
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}

// optionalFloat reads a float flag, returning nil when it was not set.
func optionalFloat(cmd *cobra.Command, name string) *float64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetFloat64(name)
	return &v
}

func formatPct(p float64) string {
	return strconv.FormatFloat(p*100, 'f', 2, 64) + "%"
}

func formatPrice(p float64) string {
	return "$" + strconv.FormatFloat(p, 'f', 2, 64)
}

func formatOptional(p *float64, format func(float64) string) string {
	if p == nil {
		return "-"
	}
	return format(*p)
}

func formatPnL(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%+.4f", *p)
}

func resolutionIcon(r tracker.Resolution) string {
	switch r {
	case tracker.ResolutionCorrect:
		return "✅"
	case tracker.ResolutionIncorrect:
		return "❌"
	case tracker.ResolutionUnknown:
		return "❔"
	default:
		return "⏳"
	}
}
