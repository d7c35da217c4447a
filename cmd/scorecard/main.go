// Command scorecard runs the AI Efficiency Scorecard backend and its offline
// tooling.
package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ai-scorecard/backend/internal/config"
)

var (
	envFile string
	port    string
	dbPath  string
	verbose bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "scorecard",
	Short: "AI Efficiency Scorecard backend",
	Long: `Runs the AI Efficiency Scorecard API and offline helpers.

Available subcommands:
  serve     - Run the HTTP API
  render    - Render a report markdown file to HTML, PDF, terminal or JSON
  providers - Check which LLM providers answer
  import    - Import stored scorecard documents from a JSON export`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var files []string
		if strings.TrimSpace(envFile) != "" {
			files = append(files, envFile)
		}
		loaded, err := config.Load(files...)
		if err != nil {
			return err
		}
		if strings.TrimSpace(port) != "" {
			loaded.Port = strings.TrimSpace(port)
		}
		if strings.TrimSpace(dbPath) != "" {
			loaded.DatabasePath = strings.TrimSpace(dbPath)
		}
		if verbose {
			loaded.LogLevel = "debug"
		}
		loaded.ConfigureLogging()
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a .env file (default: .env in the working directory)")
	rootCmd.PersistentFlags().StringVar(&port, "port", "", "HTTP port (overrides PORT)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides DATABASE_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(importCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("scorecard failed")
		os.Exit(1)
	}
}
