package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/social-intel/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "social-intel",
	Short: "Competitive-intelligence scraper for public social profiles",
	Long:  "Extracts follower counts, bios, and recent posts with engagement from public Instagram, TikTok, and Twitter/X profiles through cascading retrieval strategies.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
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
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
