package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/jobs"
)

func newThreadsCmd() *cobra.Command {
	var (
		project    string
		maxResults int
	)

	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List recent threads of a project's mailbox",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx := context.Background()

			a, err := newApp(ctx, cfg, newLogger(cfg), nil)
			if err != nil {
				return err
			}
			defer a.close()

			threads := a.orch.ListThreads(ctx, project, maxResults)
			if threads == nil {
				threads = []gmail.ThreadSummary{}
			}
			return printJSON(cmd, threads)
		},
	}

	cmd.Flags().StringVar(&project, "project", jobs.DefaultProjectID, "Project ID")
	cmd.Flags().IntVar(&maxResults, "max", gmail.DefaultMaxResults, "Maximum number of threads")

	return cmd
}
