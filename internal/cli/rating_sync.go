package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type RatingSyncOptions struct {
	GlobalOptions
}

func DefaultRatingSyncOptions() *RatingSyncOptions {
	return &RatingSyncOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdRatingSync() *cobra.Command {
	o := DefaultRatingSyncOptions()
	cmd := &cobra.Command{
		Use:   "rating-sync JOB_ID",
		Short: "Push the rating of a completed job to the worker profile again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage: true,
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *RatingSyncOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	_, err := parseJobID(args[0])
	return err
}

func (o *RatingSyncOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	jobID, _ := parseJobID(args[0])
	synced, status, err := c.RetryRatingSync(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to sync the rating of job %s: %w", jobID, err)
	}

	if !synced {
		fmt.Fprintf(o.Out(), "rating of job %s still pending: %s\n", jobID, status.Message)
		return nil
	}
	fmt.Fprintf(o.Out(), "rating of job %s synced\n", jobID)
	return nil
}
