package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gopherai-docqa/internal/app"
)

func newQueryCmd(opts *options) *cobra.Command {
	var (
		topK      int
		maxPerDoc int
		minScore  float64
	)
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Answer a question from the tenant's documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			answer, err := a.RAG.Ask(cmd.Context(), app.AskInput{
				TenantID:       opts.tenantID,
				Question:       args[0],
				TopK:           topK,
				MaxPerDocument: maxPerDoc,
				MinScore:       float32(minScore),
			})
			if err != nil {
				return err
			}
			return opts.render(cmd.OutOrStdout(), answer, func(w io.Writer) {
				fmt.Fprintln(w, answer.Answer)
				if len(answer.Sources) == 0 {
					return
				}
				fmt.Fprintln(w, "\nSources:")
				for i, s := range answer.Sources {
					where := s.DocumentName
					if s.Locator != "" {
						where += ", " + s.Locator
					}
					fmt.Fprintf(w, "  [%d] %s (%.3f)\n      %s\n", i+1, where, s.Score, s.Excerpt)
				}
			})
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to ground on (default from config)")
	cmd.Flags().IntVar(&maxPerDoc, "max-per-doc", 0, "Cap on chunks from one document")
	cmd.Flags().Float64Var(&minScore, "min-score", 0, "Minimum similarity score")
	return cmd
}
