package main

import (
	"bufio"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/strategy"
)

var batchFile string

// target is one line of the batch file: platform, handle, optional name.
type target struct {
	platform model.Platform
	handle   string
	name     string
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scrape profiles listed in a file",
	Long:  "Reads targets from a file with one 'platform handle [display name]' per line and scrapes them concurrently. Each target still runs its cascade strictly sequentially.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		targets, err := readTargets(batchFile)
		if err != nil {
			return err
		}
		if len(targets) == 0 {
			return eris.Errorf("no targets in %s", batchFile)
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		var succeeded, failed atomic.Int64

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.Batch.MaxConcurrentTargets)

		for _, tg := range targets {
			g.Go(func() error {
				result := e.Cascade.Run(ctx, strategy.Query{
					Platform:  tg.platform,
					Handle:    tg.handle,
					PostLimit: cfg.Extract.PostLimit,
					Net:       e.newNetClient(),
				})

				job := model.JobRecord{
					ID:          uuid.New().String(),
					Platform:    tg.platform,
					Handle:      tg.handle,
					DisplayName: tg.name,
					Status:      model.StatusFor(result),
					Result:      result,
					CapturedAt:  time.Now().UTC(),
				}
				if job.Status == model.JobSucceeded {
					succeeded.Add(1)
				} else {
					failed.Add(1)
				}

				if err := e.Store.SaveResult(ctx, job); err != nil {
					return eris.Wrapf(err, "save %s/%s", tg.platform, tg.handle)
				}
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("batch complete",
			zap.Int("targets", len(targets)),
			zap.Int64("succeeded", succeeded.Load()),
			zap.Int64("failed", failed.Load()),
		)
		return nil
	},
}

func readTargets(path string) ([]target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open targets file")
	}
	defer f.Close()

	var targets []target
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, eris.Errorf("line %d: want 'platform handle [display name]', got %q", line, text)
		}
		platform, err := model.ParsePlatform(fields[0])
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}
		targets = append(targets, target{
			platform: platform,
			handle:   strings.TrimPrefix(fields[1], "@"),
			name:     strings.Join(fields[2:], " "),
		})
	}
	return targets, eris.Wrap(scanner.Err(), "read targets file")
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "targets file (required)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}
