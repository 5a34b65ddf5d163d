// Package cli implements ragctl, which drives ingestion and question answering
// against the configured stores without the HTTP server.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gopherai-docqa/internal/bootstrap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

type options struct {
	configPath string
	tenantID   string
	jsonOut    bool
}

func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Ingest documents and ask questions about them",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(fmt.Sprintf("ragctl version %s (built %s)\n", Version, BuildTime))

	defaultTenant := os.Getenv("RAG_TENANT")
	if defaultTenant == "" {
		defaultTenant = "default"
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file (default $CONFIG_FILE or configs/config.toml)")
	root.PersistentFlags().StringVarP(&opts.tenantID, "tenant", "t", defaultTenant, "Tenant the command acts for")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	root.AddCommand(
		newIngestCmd(opts),
		newQueryCmd(opts),
		newListCmd(opts),
		newDeleteCmd(opts),
		newStatusCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// openApp builds the stores without background workers; submitted documents
// are ingested before the command returns.
func (o *options) openApp(ctx context.Context) (*bootstrap.App, error) {
	return bootstrap.NewWithOptions(ctx, bootstrap.Options{ConfigPath: o.configPath})
}

// render writes v as indented JSON with --json, otherwise calls text.
func (o *options) render(w io.Writer, v interface{}, text func(w io.Writer)) error {
	if o.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}
