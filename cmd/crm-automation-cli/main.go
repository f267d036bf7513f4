// CRM Automation CLI — инструмент командной строки для управления
// настройками автоматизации, цепочкой этапов и задачами через HTTP API.
//
// Использование:
//
//	crm-automation [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	settings  Настройки автоматизации задач
//	chain     Цепочка этапов
//	task      Производственные задачи
//	check     Проверка готовности этапа заказа
//	resolve   Создание зависимых задач вручную
//	notify    Push-уведомления
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aslan-crm/automation/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "crm-automation",
		Short:         "CRM stage automation tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewSettingsCmd(clientFn, outputFn),
		cli.NewChainCmd(clientFn, outputFn),
		cli.NewTaskCmd(clientFn, outputFn),
		cli.NewCheckCmd(clientFn, outputFn),
		cli.NewResolveCmd(clientFn, outputFn),
		cli.NewNotifyCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
