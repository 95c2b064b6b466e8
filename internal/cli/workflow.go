package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage workflow templates",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowUpdateCmd(clientFn, outputFn),
		newWorkflowFormsCmd(clientFn, outputFn),
		newWorkflowAddFormCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List workflow templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows()
			if err != nil {
				return err
			}

			headers := []string{"ID", "KEY", "TITLE", "STATUS", "CREATED"}
			rows := make([][]string, len(workflows))
			for i, w := range workflows {
				rows[i] = []string{w.ID, w.Key, w.Title, w.Status, w.CreatedAt}
			}

			out.Print(headers, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var key string
	var description string

	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: "Create a workflow template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflow, err := client.CreateWorkflow(CreateWorkflowRequest{
				Title:       args[0],
				Key:         key,
				Description: description,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow created: %s", workflow.ID))
			out.Print(
				[]string{"ID", "KEY", "TITLE", "STATUS"},
				[][]string{{workflow.ID, workflow.Key, workflow.Title, workflow.Status}},
				workflow,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Unique machine key (required)")
	cmd.Flags().StringVar(&description, "description", "", "Template description")
	cmd.MarkFlagRequired("key")

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show workflow template details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflow, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "KEY", "TITLE", "STATUS", "DESCRIPTION", "CREATED"},
				[][]string{{workflow.ID, workflow.Key, workflow.Title, workflow.Status, workflow.Description, workflow.CreatedAt}},
				workflow,
			)
			return nil
		},
	}
}

func newWorkflowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var title string
	var description string
	var status string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update workflow template metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateWorkflowRequest{}
			if cmd.Flags().Changed("title") {
				req.Title = &title
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			if cmd.Flags().Changed("status") {
				req.Status = &status
			}

			workflow, err := client.UpdateWorkflow(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow updated: %s", workflow.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringVar(&status, "status", "", "New status (active, inactive)")

	return cmd
}

func newWorkflowFormsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "forms WORKFLOW_ID",
		Short: "List form slots of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			forms, err := client.ListForms(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "FORM_ID", "NAME", "REQUIRED", "MULTIPLE", "ORDER"}
			rows := make([][]string, len(forms))
			for i, f := range forms {
				rows[i] = []string{
					f.ID, f.FormID, f.DefaultName,
					strconv.FormatBool(f.Required),
					strconv.FormatBool(f.AllowMultiple),
					strconv.Itoa(f.SortOrder),
				}
			}

			out.Print(headers, rows, forms)
			return nil
		},
	}
}

func newWorkflowAddFormCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var required bool
	var multiple bool
	var sortOrder int
	var name string

	cmd := &cobra.Command{
		Use:   "add-form WORKFLOW_ID FORM_ID",
		Short: "Append a form slot to a template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			form, err := client.AddForm(args[0], AddFormRequest{
				FormID:        args[1],
				Required:      required,
				AllowMultiple: multiple,
				SortOrder:     sortOrder,
				DefaultName:   name,
			})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Form slot added: %s", form.ID))
			return nil
		},
	}

	cmd.Flags().BoolVar(&required, "required", true, "Slot is required for completion")
	cmd.Flags().BoolVar(&multiple, "multiple", false, "Slot allows repeat items")
	cmd.Flags().IntVar(&sortOrder, "order", 0, "Sort order within the template")
	cmd.Flags().StringVar(&name, "name", "", "Default item name")

	return cmd
}
