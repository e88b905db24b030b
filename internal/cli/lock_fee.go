package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type LockFeeOptions struct {
	GlobalOptions
}

func DefaultLockFeeOptions() *LockFeeOptions {
	return &LockFeeOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdLockFee() *cobra.Command {
	o := DefaultLockFeeOptions()
	cmd := &cobra.Command{
		Use:   "lock-fee JOB_ID",
		Short: "Lock the fee of an open job",
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

func (o *LockFeeOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	_, err := parseJobID(args[0])
	return err
}

func (o *LockFeeOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	jobID, _ := parseJobID(args[0])
	job, err := c.LockFee(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to lock the fee of job %s: %w", jobID, err)
	}

	fmt.Fprintf(o.Out(), "job %s is %s\n", job.Id, job.Status)
	return nil
}
