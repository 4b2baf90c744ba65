package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bic-labs/mock-robot-worker/internal/mq"
)

func sendCmd() *cobra.Command {
	var taskID string
	var paramsJSON string
	cmd := &cobra.Command{
		Use:   "send <task_type>",
		Short: "Publish a command to the robot's queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, args[0], taskID, paramsJSON)
		},
	}
	cmd.Flags().StringVar(&taskID, "task-id", "", "task id to echo back (random if empty)")
	cmd.Flags().StringVar(&paramsJSON, "params", "{}", "params object as a JSON string")
	return cmd
}

func runSend(cmd *cobra.Command, taskType, taskID, paramsJSON string) error {
	var params json.RawMessage
	if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
		return fmt.Errorf("params is not valid JSON: %w", err)
	}
	if taskID == "" {
		taskID = uuid.NewString()
	}

	conn, err := connect(cmd)
	if err != nil {
		return err
	}
	defer conn.Close()

	logger := connectLogger(cmd)
	publisher, err := mq.NewPublisher(conn, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	robotID, _ := cmd.Flags().GetString("robot")
	body := struct {
		TaskID   string          `json:"task_id"`
		TaskType string          `json:"task_type"`
		Params   json.RawMessage `json:"params"`
	}{TaskID: taskID, TaskType: taskType, Params: params}

	if err := publisher.PublishJSON(context.Background(), mq.CommandRoutingKey(robotID), body, true); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "sent task_id=%s task_type=%s to %s\n", taskID, taskType, mq.CommandRoutingKey(robotID))
	return nil
}
