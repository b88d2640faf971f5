package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// pingTimeout is the maximum time to wait per connectivity check.
const pingTimeout = 5 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check connectivity of the configured AI services",
	Long: `Pings the configured language model and embedding service and
reports what each one is running. A failing check usually means a
missing API key, a wrong base URL, or a local server that is not up.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	failures := 0

	if llmService == nil {
		cmd.Println("LLM:       not configured")
		failures++
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := llmService.Ping(pingCtx)
		cancel()
		if err != nil {
			cmd.Printf("LLM:       %s - unreachable (%v)\n", llmService.ModelName(), err)
			failures++
		} else {
			cmd.Printf("LLM:       %s - ok\n", llmService.ModelName())
		}
	}

	if embeddingSvc == nil {
		cmd.Println("Embedding: not configured")
		failures++
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := embeddingSvc.Ping(pingCtx)
		cancel()
		if err != nil {
			cmd.Printf("Embedding: %s - unreachable (%v)\n", embeddingSvc.ModelName(), err)
			failures++
		} else {
			cmd.Printf("Embedding: %s (%d dimensions) - ok\n",
				embeddingSvc.ModelName(), embeddingSvc.Dimensions())
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d check(s) failed", failures)
	}
	cmd.Println("All checks passed.")
	return nil
}
