package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

type LogoutOptions struct {
	GlobalOptions
}

func DefaultLogoutOptions() *LogoutOptions {
	return &LogoutOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdLogout() *cobra.Command {
	o := DefaultLogoutOptions()
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Cancel every live query of the configured session",
		Args:  cobra.NoArgs,
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

func (o *LogoutOptions) Run(ctx context.Context, args []string) error {
	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	if err := c.ReleaseSession(ctx); err != nil {
		return fmt.Errorf("failed to release the session: %w", err)
	}
	fmt.Fprintln(o.Out(), "session released")
	return nil
}
