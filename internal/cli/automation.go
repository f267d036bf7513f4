package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewCheckCmd создаёт команду ручного запуска проверки готовности этапа.
func NewCheckCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "check ORDER_ID",
		Short: "Evaluate stage completion for an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			orderID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid order id %q", args[0])
			}

			result, err := client.CheckStageCompletion(orderID)
			if err != nil {
				return err
			}

			printEvalResult(out, result)
			return nil
		},
	}
}

// NewResolveCmd создаёт команду ручного создания зависимых задач.
//
// Команда дублирует обработку события task.completed: полезна, когда
// событие потеряно и зависимые задачи нужно создать вручную.
func NewResolveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve TASK_ID SETTING_ID",
		Short: "Create dependent tasks for a completed task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			taskID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			result, err := client.CreateDependentTasks(taskID, args[1])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"SUCCESS", "TASKS_CREATED", "MESSAGE"},
				[][]string{{
					strconv.FormatBool(result.Success),
					taskIDList(result.TaskIDs),
					result.Message,
				}},
				result,
			)
			if result.Evaluation != nil {
				printEvalResult(out, result.Evaluation)
			}
			return nil
		},
	}
}

func printEvalResult(out *Output, r *EvalResponse) {
	if r.Advanced {
		out.Success(fmt.Sprintf("Order advanced: %s -> %s", r.FromStage, r.ToStage))
	}
	out.Print(
		[]string{"ADVANCED", "FROM", "TO", "TASKS", "MESSAGE"},
		[][]string{{
			strconv.FormatBool(r.Advanced),
			r.FromStage,
			r.ToStage,
			taskIDList(r.TaskIDs),
			r.Message,
		}},
		r,
	)
}

func taskIDList(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
