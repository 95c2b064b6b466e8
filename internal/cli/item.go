package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewItemCmd создаёт группу команд для управления items.
func NewItemCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage workflow items",
	}

	cmd.AddCommand(
		newItemAssignCmd(clientFn, outputFn),
		newItemStartCmd(clientFn, outputFn),
		newItemSkipCmd(clientFn, outputFn),
		newItemAddCmd(clientFn, outputFn),
		newItemMarkSubmittedCmd(clientFn, outputFn),
	)

	return cmd
}

func newItemAssignCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "assign ITEM_ID",
		Short: "Assign an item (omit --user to unassign)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.AssignItem(args[0], userID)
			if err != nil {
				return err
			}

			if userID == "" {
				out.Success(fmt.Sprintf("Item unassigned: %s", args[0]))
			} else {
				out.Success(fmt.Sprintf("Item assigned: %s -> %s", args[0], userID))
			}
			printAggregate(out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Assignee user ID")

	return cmd
}

func newItemStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "start ITEM_ID",
		Short: "Start an item and print the form session URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.StartItem(args[0])
			if err != nil {
				return err
			}

			if res.Item != nil && res.Item.FormSessionURL != "" {
				out.Success(fmt.Sprintf("Form session: %s", res.Item.FormSessionURL))
			}
			printAggregate(out, res)
			return nil
		},
	}
}

func newItemSkipCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "skip ITEM_ID",
		Short: "Skip an item (reason required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.SkipItem(args[0], reason)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Item skipped: %s", args[0]))
			printAggregate(out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Skip reason (required)")
	cmd.MarkFlagRequired("reason")

	return cmd
}

func newItemAddCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "add FROM_ITEM_ID",
		Short: "Add a repeat item for an allow_multiple slot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.AddItem(args[0], userID)
			if err != nil {
				return err
			}

			if res.Item != nil {
				out.Success(fmt.Sprintf("Item added: %s (seq %d)", res.Item.ID, res.Item.SequenceNum))
			}
			printAggregate(out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Assignee for the new item")

	return cmd
}

func newItemMarkSubmittedCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "mark-submitted ITEM_ID",
		Short: "Manually apply a lost Form Service callback",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.MarkSubmitted(args[0], runID)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Item submitted: %s", args[0]))
			printAggregate(out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run-id", "", "Run the item belongs to (required)")
	cmd.MarkFlagRequired("run-id")

	return cmd
}

// printAggregate печатает агрегатный блок run после мутации.
func printAggregate(out *Output, res *MutationResponse) {
	out.Print(
		[]string{"RUN_ID", "STATUS", "PROGRESS"},
		[][]string{{
			res.Run.ID, res.Aggregate.Status,
			fmt.Sprintf("%d/%d", res.Aggregate.RequiredDone, res.Aggregate.RequiredTotal),
		}},
		res,
	)
}
