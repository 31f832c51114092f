package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gitlab.com/codemark.net/internal/config"
	logger2 "gitlab.com/codemark.net/internal/global/logger"
)

var environment string

var rootCmd = &cobra.Command{
	Use:   "codemark",
	Short: "Grading engine and live result hub",
	Long: `codemark executes the levels and steps of an assignment against a
submission inside isolated containers, records every step outcome, and
streams result snapshots to authorized viewers over websockets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return InitReader(cmd.Flags().Changed("env"))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&environment, "env", "e", "dev", "environment name, loads <env>.env")
	rootCmd.AddCommand(serveCmd, workerCmd, rerunCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// InitReader loads <env>.env into the process environment. A missing file is
// only an error when the environment was chosen explicitly.
func InitReader(explicit bool) error {
	if err := godotenv.Load(environment + ".env"); err != nil {
		if explicit {
			return fmt.Errorf("error loading %s.env file: %w", environment, err)
		}
		logger2.Debug("No env file loaded", "env", environment)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		logger2.SetLevel(level)
	}
	return nil
}

func loadConfig() *config.AppConfig {
	return config.NewSystemConfig()
}
