package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "kaamsetu-api",
	Short: "KaamSetu job lifecycle and assignment service",
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(runCmd)
}
