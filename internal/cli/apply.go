package cli

import (
	"context"
	"fmt"

	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ApplyOptions struct {
	GlobalOptions

	Name  string
	Phone string
}

func DefaultApplyOptions() *ApplyOptions {
	return &ApplyOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdApply() *cobra.Command {
	o := DefaultApplyOptions()
	cmd := &cobra.Command{
		Use:     "apply JOB_ID",
		Short:   "Apply to a job as a worker",
		Example: "apply <job id> --name Ramesh --phone 9123456780",
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

func (o *ApplyOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVar(&o.Name, "name", o.Name, "Name shown to the employer, defaults to the configured identity")
	fs.StringVar(&o.Phone, "phone", o.Phone, "Phone shown to the employer, defaults to the configured identity")
}

func (o *ApplyOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	_, err := parseJobID(args[0])
	return err
}

func (o *ApplyOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	jobID, _ := parseJobID(args[0])
	result, err := c.Apply(ctx, jobID, api.ApplicationCreate{WorkerName: o.Name, WorkerPhone: o.Phone})
	if err != nil {
		return fmt.Errorf("failed to apply to job %s: %w", jobID, err)
	}

	if result.AlreadyApplied {
		fmt.Fprintf(o.Out(), "already applied to job %s\n", jobID)
		return nil
	}
	fmt.Fprintf(o.Out(), "applied to job %s\n", jobID)
	return nil
}
