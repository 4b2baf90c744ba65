package main

import (
	"github.com/spf13/cobra"
)

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Send a reset_state command, clearing the worker's world model",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, "reset_state", "", "{}")
		},
	}
}
