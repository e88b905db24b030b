package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type AssignOptions struct {
	GlobalOptions
}

func DefaultAssignOptions() *AssignOptions {
	return &AssignOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdAssign() *cobra.Command {
	o := DefaultAssignOptions()
	cmd := &cobra.Command{
		Use:     "assign JOB_ID WORKER_ID",
		Short:   "Assign a job to one of its applicants",
		Example: "assign <job id> <worker id>",
		Args:    cobra.ExactArgs(2),
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

func (o *AssignOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if _, err := parseJobID(args[0]); err != nil {
		return err
	}
	if args[1] == "" {
		return fmt.Errorf("a worker id is required")
	}
	return nil
}

func (o *AssignOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	jobID, _ := parseJobID(args[0])
	job, err := c.Assign(ctx, jobID, args[1])
	if err != nil {
		return fmt.Errorf("failed to assign job %s: %w", jobID, err)
	}

	fmt.Fprintf(o.Out(), "job %s assigned to %s\n", job.Id, args[1])
	return nil
}
