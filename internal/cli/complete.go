package cli

import (
	"context"
	"fmt"

	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type CompleteOptions struct {
	GlobalOptions

	Rating int
	Review string

	rated bool
}

func DefaultCompleteOptions() *CompleteOptions {
	return &CompleteOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdComplete() *cobra.Command {
	o := DefaultCompleteOptions()
	cmd := &cobra.Command{
		Use:     "complete JOB_ID",
		Short:   "Mark an assigned job as completed and rate the worker",
		Example: "complete <job id> --rating 5 --review \"Neat work\"",
		Args:    cobra.ExactArgs(1),
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

func (o *CompleteOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.IntVarP(&o.Rating, "rating", "r", o.Rating, "Rating from 1 to 5")
	fs.StringVar(&o.Review, "review", o.Review, "Free text review")
}

func (o *CompleteOptions) Complete(cmd *cobra.Command, args []string) error {
	if err := o.GlobalOptions.Complete(cmd, args); err != nil {
		return err
	}
	o.rated = cmd.Flags().Changed("rating")
	return nil
}

func (o *CompleteOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if _, err := parseJobID(args[0]); err != nil {
		return err
	}
	if o.rated && (o.Rating < 1 || o.Rating > 5) {
		return fmt.Errorf("--rating must be between 1 and 5")
	}
	return nil
}

func (o *CompleteOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	body := api.Complete{}
	if o.rated {
		body.Rating = &o.Rating
	}
	if o.Review != "" {
		body.Review = &o.Review
	}

	jobID, _ := parseJobID(args[0])
	result, err := c.Complete(ctx, jobID, body)
	if err != nil {
		return fmt.Errorf("failed to complete job %s: %w", jobID, err)
	}

	fmt.Fprintf(o.Out(), "job %s completed\n", result.Job.Id)
	if result.Warning != nil {
		fmt.Fprintf(o.Out(), "warning: %s, retry with: kaamctl rating-sync %s\n", *result.Warning, result.Job.Id)
	}
	return nil
}
