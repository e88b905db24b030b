package cli

import (
	"context"
	"fmt"

	"github.com/kaamsetu/kaamsetu/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type ConfigureOptions struct {
	GlobalOptions

	Server   string
	Identity client.Identity
}

func DefaultConfigureOptions() *ConfigureOptions {
	return &ConfigureOptions{
		GlobalOptions: DefaultGlobalOptions(),
		Server:        "http://localhost:3443",
	}
}

func NewCmdConfigure() *cobra.Command {
	o := DefaultConfigureOptions()
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Write the kaamctl config file",
		Example: "configure --user emp-1 --role employer --name Asha --phone 9876543210\n" +
			"configure --server https://kaamsetu.example.com --token <jwt>",
		Args: cobra.NoArgs,
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

func (o *ConfigureOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)

	fs.StringVarP(&o.Server, "server", "s", o.Server, "Address of the KaamSetu API server")
	fs.StringVar(&o.Identity.Token, "token", o.Identity.Token, "Token issued for the local authenticator")
	fs.StringVar(&o.Identity.User, "user", o.Identity.User, "User id sent when no token is set")
	fs.StringVar(&o.Identity.Role, "role", o.Identity.Role, "Role of the user: worker or employer")
	fs.StringVar(&o.Identity.Name, "name", o.Identity.Name, "Display name of the user")
	fs.StringVar(&o.Identity.Phone, "phone", o.Identity.Phone, "Phone number of the user")
	fs.StringVar(&o.Identity.Session, "session", o.Identity.Session, "Session grouping the live queries of this client")
}

func (o *ConfigureOptions) Validate(args []string) error {
	if err := o.GlobalOptions.Validate(args); err != nil {
		return err
	}
	config := client.NewDefault()
	config.Service.Server = o.Server
	config.Identity = o.Identity
	return config.Validate()
}

func (o *ConfigureOptions) Run(ctx context.Context, args []string) error {
	if err := client.WriteConfig(o.ConfigFilePath, o.Server, o.Identity); err != nil {
		return err
	}
	fmt.Fprintf(o.Out(), "config written to %s\n", o.ConfigFilePath)
	return nil
}
