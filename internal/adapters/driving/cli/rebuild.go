package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

var rebuildScope string

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild a scope's index",
	Long: `Rebuilds the scope's index from its current document set. Useful
after editing prompt or embedding configuration, or when the index
is suspected stale.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

func init() {
	rebuildCmd.Flags().StringVarP(&rebuildScope, "scope", "s", "default", "scope to rebuild")
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	ctx := context.Background()

	if err := ingestService.Rebuild(ctx, domain.Scope(rebuildScope)); err != nil {
		if errors.Is(err, domain.ErrRebuildInProgress) {
			return fmt.Errorf("scope %q is already rebuilding", rebuildScope)
		}
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Rebuilt index for scope %q\n", rebuildScope)
	return nil
}
