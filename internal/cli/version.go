package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// version is set at build time with -ldflags "-X ...".
var version = "unknown"

type VersionOptions struct {
	GlobalOptions

	ClientOnly bool
}

func DefaultVersionOptions() *VersionOptions {
	return &VersionOptions{
		GlobalOptions: DefaultGlobalOptions(),
	}
}

func NewCmdVersion() *cobra.Command {
	o := DefaultVersionOptions()
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print kaamctl and server version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *VersionOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.BoolVar(&o.ClientOnly, "client", o.ClientOnly, "Only print the kaamctl version")
}

func (o *VersionOptions) Run(ctx context.Context, args []string) error {
	fmt.Fprintf(o.Out(), "kaamctl Version: %s\n", version)
	if o.ClientOnly {
		return nil
	}

	c, err := o.Client()
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}
	info, err := c.Info(ctx)
	if err != nil {
		return fmt.Errorf("reading server version: %w", err)
	}
	fmt.Fprintf(o.Out(), "Server Version: %s\n", info.Version)
	return nil
}
