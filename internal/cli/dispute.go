package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type DisputeOptions struct {
	GlobalOptions

	Reason string
}

func DefaultDisputeOptions() *DisputeOptions {
	return &DisputeOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdDispute() *cobra.Command {
	o := DefaultDisputeOptions()
	cmd := &cobra.Command{
		Use:     "dispute JOB_ID",
		Short:   "Raise a dispute on an open or booked job",
		Example: "dispute <job id> --reason \"No show\"",
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

func (o *DisputeOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Reason, "reason", o.Reason, "Why the job is disputed, the server defaults it to \"No show\"")
}

func (o *DisputeOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	_, err := parseJobID(args[0])
	return err
}

func (o *DisputeOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	jobID, _ := parseJobID(args[0])
	job, err := c.DisputeJob(ctx, jobID, o.Reason)
	if err != nil {
		return fmt.Errorf("failed to dispute job %s: %w", jobID, err)
	}

	reason := ""
	if job.DisputeReason != nil {
		reason = *job.DisputeReason
	}
	fmt.Fprintf(o.Out(), "job %s disputed: %s\n", job.Id, reason)
	return nil
}
