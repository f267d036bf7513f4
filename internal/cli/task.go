package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewTaskCmd создаёт группу команд для работы с задачами.
func NewTaskCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage production tasks",
	}

	cmd.AddCommand(newTaskCompleteCmd(clientFn, outputFn))

	return cmd
}

func newTaskCompleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "complete ID",
		Short: "Mark a task completed and trigger automation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			task, err := client.CompleteTask(id)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Task completed: %d", task.ID))
			out.Print(
				[]string{"ID", "TITLE", "ORDER", "STAGE", "STATUS", "DUE"},
				[][]string{{
					strconv.FormatInt(task.ID, 10),
					task.Title,
					strconv.FormatInt(task.ZakazID, 10),
					task.StageID,
					task.Status,
					task.DueDate,
				}},
				task,
			)
			return nil
		},
	}
}
