package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

var (
	ingestScope       string
	ingestContentType string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into a scope",
	Long: `Stores the file, extracts and chunks its text, and rebuilds the
scope's index. The content type is inferred from the file extension
unless overridden with --type.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestScope, "scope", "s", "default", "scope to ingest into")
	ingestCmd.Flags().StringVarP(&ingestContentType, "type", "t", "", "content type override (e.g. text/markdown)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	src, err := ingestService.Ingest(ctx, domain.Scope(ingestScope), args[0], ingestContentType)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %s into scope %q\n", src.Name, ingestScope)
	cmd.Printf("  ID:   %s\n", src.ID)
	cmd.Printf("  Type: %s\n", src.ContentType)
	cmd.Printf("  Size: %d bytes\n", src.Size)
	return nil
}
