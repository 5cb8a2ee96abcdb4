package main

import (
	"fmt"
	"os"

	"github.com/solheim/stonadskjerne/internal/claims"
	"github.com/solheim/stonadskjerne/internal/engine"
	"github.com/solheim/stonadskjerne/internal/model"
	"github.com/spf13/cobra"
)

func claimsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claims",
		Short: "Manage inbound claim documents",
	}

	cmd.AddCommand(claimsReceiveCmd())
	cmd.AddCommand(claimsListCmd())
	cmd.AddCommand(claimsProcessCmd())

	return cmd
}

func claimsReceiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "receive <file>",
		Short: "Store a raw claim document for later processing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read claim document: %w", err)
			}

			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng := engine.New(store, nil, nil, claims.NewParser(), nil, nil)
			return eng.ReceiveClaimDocument(cmd.Context(), model.RawClaimDocument{Payload: payload})
		},
	}
}

func claimsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List unprocessed claim documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			docs, err := store.ListUnprocessedClaimDocuments(cmd.Context())
			if err != nil {
				return err
			}

			if len(docs) == 0 {
				fmt.Println("No unprocessed claim documents.")
				return nil
			}
			for _, doc := range docs {
				fmt.Printf("%s  received %s  (%d bytes)\n",
					doc.ID, doc.ReceivedAt.Format("2006-01-02 15:04:05"), len(doc.Payload))
			}
			return nil
		},
	}
}

func claimsProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Match unprocessed claim documents to their waiting workflows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStorage()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			eng := engine.New(store, nil, nil, claims.NewParser(), nil, nil)
			summary, err := eng.ProcessClaimDocuments(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("Processed %d, skipped %d, failed %d\n",
				summary.Processed, summary.Skipped, summary.Failed)
			return nil
		},
	}
}
