package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewNotifyCmd создаёт группу команд для push-уведомлений.
func NewNotifyCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send push notifications",
	}

	cmd.AddCommand(newNotifySendCmd(clientFn, outputFn))

	return cmd
}

func newNotifySendCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req SendNotificationRequest
	var taskID, orderID int64

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a push notification to a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if cmd.Flags().Changed("task") {
				req.TaskID = &taskID
			}
			if cmd.Flags().Changed("order") {
				req.OrderID = &orderID
			}

			result, err := client.SendNotification(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Delivered to %d of %d subscriptions", result.Sent, result.Total))
			if out.jsonMode {
				out.JSON(result)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.UserID, "user", "", "Recipient user ID (required)")
	cmd.Flags().StringVar(&req.Title, "title", "", "Notification title (required)")
	cmd.Flags().StringVar(&req.Body, "body", "", "Notification body")
	cmd.Flags().Int64Var(&taskID, "task", 0, "Related task ID")
	cmd.Flags().Int64Var(&orderID, "order", 0, "Related order ID")
	cmd.Flags().StringVar(&req.URL, "url", "", "Target URL opened from the notification")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("title")

	return cmd
}
