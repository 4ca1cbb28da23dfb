package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/workbench-cli/internal/core/domain"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search your notes semantically",
	Long: `Performs semantic search across your notes.

Notes are shortlisted by embedding similarity and reordered by a reranking
model. When no rerank provider is configured, results fall back to
similarity order.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if err := ensureAgent(); err != nil {
		return err
	}
	if searchService == nil {
		return errNotWired
	}

	output, err := searchService.Search(cmd.Context(), owner, args[0])
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, output)
	}
	return outputSearchTable(cmd, output)
}

func outputSearchJSON(cmd *cobra.Command, output *domain.NoteSearchOutput) error {
	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, output *domain.NoteSearchOutput) error {
	if len(output.Results) == 0 {
		cmd.Println("No matching notes found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, result := range output.Results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, result.Title, result.Score)
		if result.Excerpt != "" {
			cmd.Printf("      %s\n", result.Excerpt)
		}
		cmd.Println()
	}

	if output.Degraded {
		cmd.Println("Note: reranking unavailable, results are in similarity order.")
	}

	return nil
}
