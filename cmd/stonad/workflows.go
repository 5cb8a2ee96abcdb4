package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func workflowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect recoupment workflows",
	}

	cmd.AddCommand(workflowsListCmd())

	return cmd
}

func workflowsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recoupment workflows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stored, err := store.ListWorkflows(cmd.Context())
			if err != nil {
				return err
			}

			if len(stored) == 0 {
				fmt.Println("No workflows.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCASE\tSTATE\tPERIOD\tCREATED")
			for _, s := range stored {
				meta := s.Workflow.Meta()
				fmt.Fprintf(w, "%s\t%s\t%s\t%s - %s\t%s\n",
					meta.ID, meta.CaseNumber, s.Workflow.State(),
					meta.Period.From.Format("2006-01-02"), meta.Period.To.Format("2006-01-02"),
					meta.CreatedAt.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}
