// Package cli implements the command-line interface. Commands are thin:
// they parse flags, call core services, and format output.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/evidentlabs/answercore/internal/core/ports/driven"
	"github.com/evidentlabs/answercore/internal/core/ports/driving"
	"github.com/evidentlabs/answercore/internal/core/services"
	"github.com/evidentlabs/answercore/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Package-level services, injected by SetServices before Execute.
// Commands check for nil and fail gracefully when a service is missing.
var (
	chatService   driving.ChatService
	ingestService driving.IngestService
	indexCache    *services.IndexCache
	llmService    driven.LLMService
	embeddingSvc  driven.EmbeddingService
	uploadsRoot   string
)

// Services bundles the dependencies the CLI needs.
type Services struct {
	// Chat answers queries. Required by the ask command.
	Chat driving.ChatService

	// Ingest manages scoped document sets. Required by ingest,
	// documents, rebuild and watch.
	Ingest driving.IngestService

	// Cache is the index handle cache; watch uses it for idle eviction.
	Cache *services.IndexCache

	// LLM is the configured language model; doctor pings it.
	LLM driven.LLMService

	// Embedder is the configured embedding service; doctor pings it.
	Embedder driven.EmbeddingService

	// UploadsRoot is the directory the watch command observes.
	UploadsRoot string
}

// SetServices injects the core services the commands depend on.
func SetServices(s Services) {
	chatService = s.Chat
	ingestService = s.Ingest
	indexCache = s.Cache
	llmService = s.LLM
	embeddingSvc = s.Embedder
	uploadsRoot = s.UploadsRoot
}

var rootCmd = &cobra.Command{
	Use:   "answercore",
	Short: "Scoped retrieval with LLM-routed answers",
	Long: `Answercore ingests documents into per-scope indexes and answers
questions against them. Each query is classified and routed to the
document index, live web search, or both, and the gathered evidence
is synthesized into a sourced answer.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseLogging)
	},
}

var verboseLogging bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&verboseLogging, "debug", false, "enable verbose logging")
}

// Execute runs the root command with the given build version.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}
