package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evidentlabs/answercore/internal/core/domain"
)

var (
	askScope   string
	askJSON    bool
	askVerbose bool
)

var askCmd = &cobra.Command{
	Use:   "ask [query]",
	Short: "Ask a question against a scope",
	Long: `Classifies the query, gathers evidence from the scope's document
index and/or live web search, and synthesizes an answer with sources.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askScope, "scope", "s", "default", "scope to query")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "show routing decision and evidence details")
	rootCmd.AddCommand(askCmd)
}

// askOutput is the JSON shape of an answered query.
type askOutput struct {
	Answer   string   `json:"answer"`
	Decision string   `json:"decision"`
	Sources  []string `json:"sources,omitempty"`
	Reasons  []string `json:"reasons,omitempty"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errors.New("chat service not configured")
	}

	query := args[0]
	ctx := context.Background()

	answer, err := chatService.Answer(ctx, domain.Scope(askScope), query)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}

	if askJSON {
		out := askOutput{
			Answer:   answer.Text,
			Decision: answer.Bundle.Decision.String(),
			Reasons:  answer.Bundle.Reasons,
		}
		for _, s := range answer.Bundle.Snippets {
			out.Sources = append(out.Sources, s.Ref())
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)

	if len(answer.Bundle.Snippets) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, s := range answer.Bundle.Snippets {
			cmd.Printf("  - %s\n", s.Ref())
		}
	}

	if askVerbose {
		cmd.Println()
		cmd.Printf("Decision: %s (%s)\n", answer.Bundle.Decision, answer.Bundle.Decision.Description())
		for _, reason := range answer.Bundle.Reasons {
			cmd.Printf("Note: %s\n", reason)
		}
	}

	return nil
}
