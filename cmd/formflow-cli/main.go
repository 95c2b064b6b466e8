// Formflow CLI — инструмент командной строки для управления
// шаблонами, runs и items через HTTP API.
//
// Использование:
//
//	formflow [--api-url URL] [--actor ID] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	workflow  Управление шаблонами
//	run       Управление runs
//	item      Управление items
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Formflow/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var actorID string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "formflow",
		Short:         "Formflow CLI — workflow completion engine tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", os.Getenv("FORMFLOW_ACTOR"), "Acting user ID (X-Actor-Id header)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, actorID) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewItemCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
