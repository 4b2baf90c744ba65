package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bic-labs/mock-robot-worker/internal/mq"
)

func connectLogger(cmd *cobra.Command) *slog.Logger {
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), nil))
}

func connect(cmd *cobra.Command) (*mq.Connection, error) {
	url, _ := cmd.Flags().GetString("url")
	exchange, _ := cmd.Flags().GetString("exchange")
	return mq.Dial(url, exchange, connectLogger(cmd))
}
