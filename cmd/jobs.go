package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/social-intel/internal/model"
	"github.com/sells-group/social-intel/internal/store"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect stored scrape jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		platform, _ := cmd.Flags().GetString("platform")
		handle, _ := cmd.Flags().GetString("handle")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		jobs, err := st.ListJobs(ctx, store.JobFilter{
			Platform: model.Platform(platform),
			Handle:   handle,
			Status:   model.JobStatus(status),
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "jobs list")
		}

		if len(jobs) == 0 {
			fmt.Fprintln(os.Stderr, "No jobs found.")
			return nil
		}

		formatJobsList(os.Stdout, jobs)
		return nil
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <job-id>",
	Short: "Show one job record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "jobs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(job)
	},
}

func formatJobsList(w io.Writer, jobs []model.JobRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATFORM\tHANDLE\tSTATUS\tFOLLOWERS\tPOSTS\tCAPTURED")
	for _, j := range jobs {
		followers := "-"
		if j.Result.Followers != nil {
			followers = fmt.Sprintf("%d", *j.Result.Followers)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			j.ID, j.Platform, j.Handle, j.Status,
			followers, len(j.Result.Posts),
			j.CapturedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush()
}

func init() {
	jobsListCmd.Flags().String("platform", "", "filter by platform")
	jobsListCmd.Flags().String("handle", "", "filter by handle")
	jobsListCmd.Flags().String("status", "", "filter by status (succeeded, failed)")
	jobsListCmd.Flags().Int("limit", 50, "max jobs to list")
	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
	rootCmd.AddCommand(jobsCmd)
}
