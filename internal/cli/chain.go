package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewChainCmd создаёт группу команд для управления цепочкой этапов.
func NewChainCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Manage the stage automation chain",
	}

	cmd.AddCommand(
		newChainListCmd(clientFn, outputFn),
		newChainEnableCmd(clientFn, outputFn),
		newChainDisableCmd(clientFn, outputFn),
		newChainReorderCmd(clientFn, outputFn),
	)

	return cmd
}

var chainHeaders = []string{"ID", "FROM", "TO", "POS", "ACTIVE"}

func chainRow(l ChainLinkResponse) []string {
	to := l.ToStageID
	if to == "" {
		to = "(terminal)"
	}
	return []string{l.ID, l.FromStageID, to, strconv.Itoa(l.OrderPosition), strconv.FormatBool(l.IsActive)}
}

func newChainListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List chain links",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			links, err := client.ListChain()
			if err != nil {
				return err
			}

			rows := make([][]string, len(links))
			for i, l := range links {
				rows[i] = chainRow(l)
			}

			out.Print(chainHeaders, rows, links)
			return nil
		},
	}
}

func newChainEnableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "enable ID",
		Short: "Enable automation for a chain link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.SetChainEnabled(args[0], true); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Chain link enabled: %s", args[0]))
			return nil
		},
	}
}

func newChainDisableCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "disable ID",
		Short: "Disable automation for a chain link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.SetChainEnabled(args[0], false); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Chain link disabled: %s", args[0]))
			return nil
		},
	}
}

func newChainReorderCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder ID...",
		Short: "Reorder chain links (IDs in the new order)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			links, err := client.ReorderChain(args)
			if err != nil {
				return err
			}

			out.Success("Chain reordered")
			rows := make([][]string, len(links))
			for i, l := range links {
				rows[i] = chainRow(l)
			}
			out.Print(chainHeaders, rows, links)
			return nil
		},
	}
}
