package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

var documentsScope string

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Manage a scope's documents",
	Long:  `List or remove the documents ingested into a scope.`,
}

var documentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a scope's documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentsList,
}

var documentsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Remove a document and rebuild the index",
	Long: `Removes the document and everything derived from it, then rebuilds
the scope's index from the remaining documents. Removing the last
document deletes the scope's index entirely.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentsDelete,
}

func init() {
	documentsCmd.PersistentFlags().StringVarP(&documentsScope, "scope", "s", "default", "scope to operate on")

	documentsCmd.AddCommand(documentsListCmd)
	documentsCmd.AddCommand(documentsDeleteCmd)
	rootCmd.AddCommand(documentsCmd)
}

func runDocumentsList(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	sources, err := ingestService.ListSources(ctx, domain.Scope(documentsScope))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(sources) == 0 {
		cmd.Printf("No documents in scope %q.\n", documentsScope)
		return nil
	}

	cmd.Printf("Documents in scope %q:\n\n", documentsScope)
	for i := range sources {
		cmd.Printf("  %s\n", sources[i].Name)
		cmd.Printf("    ID:       %s\n", sources[i].ID)
		cmd.Printf("    Type:     %s\n", sources[i].ContentType)
		cmd.Printf("    Size:     %d bytes\n", sources[i].Size)
		cmd.Printf("    Uploaded: %s\n", sources[i].UploadedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(sources))
	return nil
}

func runDocumentsDelete(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	if err := ingestService.Remove(ctx, domain.Scope(documentsScope), args[0]); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("document %s not found in scope %q", args[0], documentsScope)
		}
		return fmt.Errorf("failed to remove document: %w", err)
	}

	cmd.Printf("Removed document %s from scope %q\n", args[0], documentsScope)
	return nil
}
