package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/synthlab/alphalog/internal/app"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the collector loop and query API",
	Long: `Starts the long-running process, which will:
1. Collect a forecast snapshot for every configured asset each interval
2. Save it under SNAPSHOTS_DIR and derive shape metrics and anomalies
3. Resolve tracked edges whose deadline has passed
4. Record newly detected edges
5. Serve the query API, health checks and metrics on HTTP_PORT

Use --no-http to run the collector loop alone.`,
	RunE: runApp,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Bool("no-http", false, "Run without the HTTP query API")
}

func runApp(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Get flags
	noHTTP, _ := cmd.Flags().GetBool("no-http")

	// Create app with options
	opts := &app.Options{
		DisableHTTP: noHTTP,
	}

	application, err := app.New(cfg, logger, opts)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	// Run app
	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
