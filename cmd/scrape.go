package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/strategy"
)

var (
	scrapePlatform string
	scrapeHandle   string
	scrapeName     string
	scrapeLimit    int
	scrapeSave     bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape a single profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		platform, err := model.ParsePlatform(scrapePlatform)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		limit := scrapeLimit
		if limit <= 0 {
			limit = cfg.Extract.PostLimit
		}

		result := e.Cascade.Run(ctx, strategy.Query{
			Platform:  platform,
			Handle:    scrapeHandle,
			PostLimit: limit,
			Net:       e.Net,
		})

		job := model.JobRecord{
			ID:          uuid.New().String(),
			Platform:    platform,
			Handle:      scrapeHandle,
			DisplayName: scrapeName,
			Status:      model.StatusFor(result),
			Result:      result,
			CapturedAt:  time.Now().UTC(),
		}

		if scrapeSave {
			if err := e.Store.SaveResult(ctx, job); err != nil {
				return eris.Wrap(err, "save result")
			}
		}

		zap.L().Info("scrape complete",
			zap.String("platform", string(platform)),
			zap.String("handle", scrapeHandle),
			zap.String("status", string(job.Status)),
			zap.Int("posts", len(result.Posts)),
			zap.Strings("sources", result.Sources),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	},
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapePlatform, "platform", "", "platform: instagram, tiktok, or twitter (required)")
	scrapeCmd.Flags().StringVar(&scrapeHandle, "handle", "", "profile handle without @ (required)")
	scrapeCmd.Flags().StringVar(&scrapeName, "name", "", "display name attached to the job record")
	scrapeCmd.Flags().IntVar(&scrapeLimit, "limit", 0, "max posts to recover (default from config)")
	scrapeCmd.Flags().BoolVar(&scrapeSave, "save", false, "append the job record to the store")
	_ = scrapeCmd.MarkFlagRequired("platform")
	_ = scrapeCmd.MarkFlagRequired("handle")
	rootCmd.AddCommand(scrapeCmd)
}
