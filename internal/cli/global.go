package cli

import (
	"fmt"
	"io"

	"github.com/kaamsetu/kaamsetu/internal/client"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type GlobalOptions struct {
	ConfigFilePath string

	out io.Writer
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{
		ConfigFilePath: client.DefaultClientConfigPath(),
	}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ConfigFilePath, "config", "c", o.ConfigFilePath, "Path to the kaamctl config file")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	o.out = cmd.OutOrStdout()
	return nil
}

func (o *GlobalOptions) Validate(args []string) error {
	if o.ConfigFilePath == "" {
		return fmt.Errorf("a config file is required")
	}
	return nil
}

func (o *GlobalOptions) Client() (*client.Client, error) {
	return client.NewFromConfigFile(o.ConfigFilePath)
}

func (o *GlobalOptions) Out() io.Writer {
	return o.out
}
