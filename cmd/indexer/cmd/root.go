package cmd

import (
	"ironready/coach-api/internal/config"

	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "indexctl",
	Short: "indexctl builds the exercise index used for plan generation",
	Long: `indexctl turns the exercise corpus (.csv or .xlsx) into an embedding index
snapshot that the API server loads at startup.

Common workflows:

  Build a local snapshot:
    indexctl build --corpus data/exercises.xlsx

  Build and upload to the configured bucket:
    indexctl build --corpus data/exercises.xlsx --publish

  Inspect an existing snapshot:
    indexctl inspect data/exercise_index.json

Settings such as the embedder, dimensions and bucket come from config.yaml
and environment variables, the same way the server reads them.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (config.Config, error) {
	return config.LoadConfig(configDir)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yaml")
}
