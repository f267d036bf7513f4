package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

// NewSettingsCmd создаёт группу команд для управления настройками автоматизации.
func NewSettingsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage automation settings",
	}

	cmd.AddCommand(
		newSettingsListCmd(clientFn, outputFn),
		newSettingsStagesCmd(clientFn, outputFn),
		newSettingsCreateCmd(clientFn, outputFn),
		newSettingsApplyCmd(clientFn, outputFn),
		newSettingsDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

var settingHeaders = []string{"ID", "STAGE", "TASK", "POS", "CONDITION", "PARENT", "PAYMENT", "DAYS"}

func settingRow(s SettingResponse) []string {
	return []string{
		s.ID,
		s.StageID,
		s.TaskName,
		strconv.Itoa(s.TaskOrderPosition),
		s.StartCondition,
		s.DependsOnTaskID,
		strconv.FormatFloat(s.PaymentAmount, 'f', 2, 64),
		strconv.Itoa(s.DurationDays),
	}
}

func newSettingsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all automation settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			settings, err := client.ListSettings()
			if err != nil {
				return err
			}

			rows := make([][]string, len(settings))
			for i, s := range settings {
				rows[i] = settingRow(s)
			}

			out.Print(settingHeaders, rows, settings)
			return nil
		},
	}
}

func newSettingsStagesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List settings grouped by stage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			groups, err := client.ListSettingsByStages()
			if err != nil {
				return err
			}

			headers := []string{"STAGE", "NAME", "TASKS"}
			rows := make([][]string, len(groups))
			for i, g := range groups {
				rows[i] = []string{g.StageID, g.StageName, strconv.Itoa(len(g.Settings))}
			}

			out.Print(headers, rows, groups)
			return nil
		},
	}
}

func newSettingsCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateSettingRequest
	var responsible, dispatcher, after string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an automation setting",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if responsible != "" {
				req.ResponsibleUserID = &responsible
			}
			if dispatcher != "" {
				req.DispatcherID = &dispatcher
			}

			// Условие запуска выводится из --after: задача с родителем
			// создаётся после его завершения, остальные — при входе на этап.
			req.StartCondition = "immediate"
			if after != "" {
				req.StartCondition = "after_task"
				req.DependsOnTaskID = &after
			}

			setting, err := client.CreateSetting(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Setting created: %s", setting.ID))
			out.Print(settingHeaders, [][]string{settingRow(*setting)}, setting)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.StageID, "stage", "", "Stage ID (required)")
	cmd.Flags().StringVar(&req.TaskName, "name", "", "Task name (required)")
	cmd.Flags().IntVar(&req.TaskOrderPosition, "position", 0, "Task order within the stage")
	cmd.Flags().StringVar(&responsible, "responsible", "", "Responsible user ID")
	cmd.Flags().StringVar(&dispatcher, "dispatcher", "", "Dispatcher user ID")
	cmd.Flags().IntVar(&req.DispatcherPercentage, "dispatcher-percent", 0, "Dispatcher percentage (0-100)")
	cmd.Flags().StringVar(&req.TaskTitleTemplate, "title", "", "Task title template, #{order_id} is substituted")
	cmd.Flags().StringVar(&req.TaskDescriptionTemplate, "description", "", "Task description template")
	cmd.Flags().Float64Var(&req.PaymentAmount, "payment", 0, "Payment amount")
	cmd.Flags().IntVar(&req.DurationDays, "duration", 1, "Duration in days")
	cmd.Flags().StringVar(&after, "after", "", "Parent setting ID (task starts after it completes)")
	cmd.MarkFlagRequired("stage")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newSettingsApplyCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Bulk-update settings from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read settings file: %w", err)
			}
			if !json.Valid(data) {
				return fmt.Errorf("settings file is not valid JSON")
			}

			updated, err := client.UpdateSettings(json.RawMessage(data))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Settings updated: %d", len(updated)))
			rows := make([][]string, len(updated))
			for i, s := range updated {
				rows[i] = settingRow(s)
			}
			out.Print(settingHeaders, rows, updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to JSON array of settings (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newSettingsDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an automation setting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteSetting(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Setting deleted: %s", args[0]))
			return nil
		},
	}
}
