package main

import (
	"os"

	"github.com/kaamsetu/kaamsetu/internal/cli"
	"github.com/spf13/cobra"
)

func main() {
	command := NewKaamCtlCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewKaamCtlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kaamctl [flags] [options]",
		Short: "kaamctl controls the KaamSetu job service.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdConfigure())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdCreate())
	cmd.AddCommand(cli.NewCmdLockFee())
	cmd.AddCommand(cli.NewCmdDispute())
	cmd.AddCommand(cli.NewCmdApply())
	cmd.AddCommand(cli.NewCmdAssign())
	cmd.AddCommand(cli.NewCmdComplete())
	cmd.AddCommand(cli.NewCmdRatingSync())
	cmd.AddCommand(cli.NewCmdLogout())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
