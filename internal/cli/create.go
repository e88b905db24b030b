package cli

import (
	"context"
	"fmt"

	api "github.com/kaamsetu/kaamsetu/api/v1"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func NewCmdCreate() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a resource",
	}
	cmd.AddCommand(NewCmdCreateJob())
	return cmd
}

type CreateJobOptions struct {
	GlobalOptions

	Pay      int
	Location string
	Phone    string
}

func DefaultCreateJobOptions() *CreateJobOptions {
	return &CreateJobOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdCreateJob() *cobra.Command {
	o := DefaultCreateJobOptions()
	cmd := &cobra.Command{
		Use:     "job TITLE",
		Short:   "Post a job",
		Example: "create job \"Painter for 2BHK\" --pay 800 --location Pune --phone 9876543210",
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

func (o *CreateJobOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.IntVarP(&o.Pay, "pay", "p", o.Pay, "Daily pay in rupees")
	fs.StringVarP(&o.Location, "location", "l", o.Location, "Where the job takes place")
	fs.StringVar(&o.Phone, "phone", o.Phone, "Phone number workers can reach the employer on")
}

func (o *CreateJobOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	if o.Pay <= 0 {
		return fmt.Errorf("--pay must be greater than 0")
	}
	if o.Location == "" {
		return fmt.Errorf("--location is required")
	}
	return nil
}

func (o *CreateJobOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	job, err := c.CreateJob(ctx, api.JobCreate{
		Title:         args[0],
		Pay:           o.Pay,
		Location:      o.Location,
		EmployerPhone: o.Phone,
	})
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	fmt.Fprintln(o.Out(), job.Id)
	return nil
}
