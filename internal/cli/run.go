package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage workflow runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunCreateCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunLockCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var workflowID string
	var status string
	var mine bool
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				WorkflowID: workflowID,
				Status:     status,
				Mine:       mine,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "STATUS", "PROGRESS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID, r.DisplayName, r.Status,
					fmt.Sprintf("%d/%d", r.RequiredDone, r.RequiredTotal),
					r.CreatedAt,
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&workflowID, "workflow-id", "", "Filter by workflow template ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (not_started, in_progress, completed, cancelled)")
	cmd.Flags().BoolVar(&mine, "mine", false, "Only runs created by the acting user")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create WORKFLOW_ID DISPLAY_NAME",
		Short: "Create a run from an active template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			detail, err := client.CreateRun(CreateRunRequest{
				WorkflowID:  args[0],
				DisplayName: args[1],
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run created: %s (%d items)", detail.Run.ID, len(detail.Items)))
			printRunDetail(out, detail)
			return nil
		},
	}

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run dashboard: items, assignees, progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			detail, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			printRunDetail(out, detail)
			return nil
		},
	}
}

func newRunLockCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "lock ID",
		Short: "Lock a run (forbids assign and add)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.LockRun(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run locked: %s", res.Run.ID))
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a run (terminal, reason required)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			res, err := client.CancelRun(args[0], reason)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run cancelled: %s", res.Run.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason (required)")
	cmd.MarkFlagRequired("reason")

	return cmd
}

// printRunDetail печатает дашборд run: шапку и таблицу items.
func printRunDetail(out *Output, detail *RunDetailResponse) {
	headers := []string{"SEQ", "ITEM_ID", "NAME", "STATUS", "ASSIGNEE", "REQUIRED"}
	rows := make([][]string, len(detail.Items))
	for i, item := range detail.Items {
		assignee := item.AssigneeName
		if assignee == "" {
			assignee = item.AssignedUserID
		}
		required := ""
		if item.Required {
			required = "yes"
		}
		rows[i] = []string{
			fmt.Sprintf("%d", item.SequenceNum),
			item.ID, item.Name, item.Status, assignee, required,
		}
	}

	out.Success(fmt.Sprintf("%s  [%s]  %d/%d required done",
		detail.Run.DisplayName, detail.Run.Status,
		detail.Progress.RequiredDone, detail.Progress.RequiredTotal,
	))
	out.Print(headers, rows, detail)
}
