package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/meeting-tracker/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "meeting-tracker",
	Short: "Track reported meetings between a public figure and business executives",
	Long:  "Searches news sources for reported meetings, extracts attendees and companies, classifies them into an industry taxonomy, and emails a prioritized report of meetings not seen before.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
