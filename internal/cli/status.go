package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func newStatusCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the tenant has indexed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.RAG.Status(cmd.Context(), opts.tenantID)
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), st, func(w io.Writer) {
				fmt.Fprintf(w, "Tenant:     %s\n", opts.tenantID)
				fmt.Fprintf(w, "Documents:  %d\n", st.Documents)
				for _, k := range slices.Sorted(maps.Keys(st.DocumentsByState)) {
					fmt.Fprintf(w, "  %-10s %d\n", k, st.DocumentsByState[k])
				}
				fmt.Fprintf(w, "Chunks:     %d\n", st.Chunks)
				fmt.Fprintf(w, "Embedding:  %s (%d dims)\n", st.EmbeddingModel, st.Dimension)
				fmt.Fprintf(w, "Index:      %s\n", st.IndexBackend)
			})
		},
	}
}
