package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gopherai-docqa/internal/app"
	"gopherai-docqa/internal/chunker"
	"gopherai-docqa/internal/model"
	"gopherai-docqa/internal/pkg/pdfextract"
)

type ingestFlags struct {
	name        string
	documentID  string
	contentType string
	sourceURL   string
}

func newIngestCmd(opts *options) *cobra.Command {
	flags := &ingestFlags{}
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a text or PDF file and wait until it is searchable",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, opts, flags, args[0])
		},
	}
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "Document name (default file name)")
	cmd.Flags().StringVar(&flags.documentID, "id", "", "Re-ingest the existing document with this id")
	cmd.Flags().StringVar(&flags.contentType, "type", "", "Content type: pdf, docx, text or website (default from extension)")
	cmd.Flags().StringVar(&flags.sourceURL, "url", "", "Source URL, required for website documents")
	return cmd
}

func runIngest(cmd *cobra.Command, opts *options, flags *ingestFlags, path string) error {
	input, err := readSource(path, flags)
	if err != nil {
		return err
	}
	input.TenantID = opts.tenantID

	a, err := opts.openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.RAG.IngestNow(cmd.Context(), input)
	if doc == nil {
		return err
	}
	if renderErr := opts.render(cmd.OutOrStdout(), doc, func(w io.Writer) {
		fmt.Fprintf(w, "%s  %s  %s  %d chunks\n", doc.ID, doc.Status, doc.Name, doc.ChunkCount)
		if doc.Error != "" {
			fmt.Fprintf(w, "error: %s\n", doc.Error)
		}
	}); renderErr != nil {
		return renderErr
	}
	return err
}

func readSource(path string, flags *ingestFlags) (app.SubmitInput, error) {
	ext := strings.ToLower(filepath.Ext(path))
	input := app.SubmitInput{
		DocumentID:  flags.documentID,
		Name:        flags.name,
		ContentType: model.ContentType(flags.contentType),
		SourceURL:   flags.sourceURL,
	}
	if input.Name == "" {
		input.Name = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return input, err
	}
	defer f.Close()
	if info, err := f.Stat(); err == nil {
		input.SizeBytes = info.Size()
	}

	if ext == ".pdf" {
		pages, err := pdfextract.ExtractPages(f)
		if err != nil {
			return input, fmt.Errorf("extract %s failed: %w", path, err)
		}
		for _, p := range pages {
			input.Pages = append(input.Pages, chunker.Page{Number: p.Number, Text: p.Text})
		}
		if input.ContentType == "" {
			input.ContentType = model.ContentTypePDF
		}
		return input, nil
	}

	raw, err := io.ReadAll(f)
	if err != nil {
		return input, err
	}
	input.Text = string(raw)
	return input, nil
}
