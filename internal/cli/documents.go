package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tenant's documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			docs, err := a.RAG.ListDocuments(cmd.Context(), opts.tenantID)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), docs, func(w io.Writer) {
				if len(docs) == 0 {
					fmt.Fprintln(w, "No documents")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tTYPE\tCHUNKS\tNAME")
				for _, d := range docs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", d.ID, d.Status, d.ContentType, d.ChunkCount, d.Name)
				}
				_ = tw.Flush()
			})
		},
	}
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id>",
		Short: "Delete a document and its indexed chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.RAG.DeleteDocument(cmd.Context(), opts.tenantID, args[0]); err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), map[string]string{"deleted_document_id": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %s\n", args[0])
			})
		},
	}
}
