package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxreply/internal/draft"
	"github.com/teemow/inboxreply/internal/jobs"
)

func newDraftCmd() *cobra.Command {
	var (
		project string
		thread  string
		tone    string
		length  string
		bullets bool
		input   string
	)

	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Draft a reply to a thread and print it as JSON",
		Long: `Run one reply job against the configured backends and print the
result payload. Without a stored Gmail credential the draft is based on a
placeholder thread; without OPENAI_API_KEY it comes from the template.`,
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

			meta := &jobs.RunMeta{ThreadID: thread, Tone: tone, Bullets: bullets}
			if length != "" {
				l := draft.ParseLength(length)
				meta.Length = &l
			}

			id, err := a.orch.Run(ctx, jobs.RunRequest{ProjectID: project, Input: input, Meta: meta})
			if err != nil {
				return err
			}
			job, err := a.orch.Get(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to load job %s: %w", id, err)
			}
			return printJSON(cmd, job.Result)
		},
	}

	cmd.Flags().StringVar(&project, "project", jobs.DefaultProjectID, "Project ID")
	cmd.Flags().StringVar(&thread, "thread", "", "Gmail thread ID")
	cmd.Flags().StringVar(&tone, "tone", string(draft.ToneFriendly), "Tone: friendly, formal, brief or professional")
	cmd.Flags().StringVar(&length, "length", "", "short, medium, long, or a word count")
	cmd.Flags().BoolVar(&bullets, "bullets", false, "Include a bullet list of key points")
	cmd.Flags().StringVar(&input, "input", "", "Guidance for the reply")
	_ = cmd.MarkFlagRequired("thread")

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
