package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/poppart-mac/smartcomponents/embed"
	"github.com/poppart-mac/smartcomponents/search"
)

var (
	queryText   string
	queryTopK   int
	queryMinSim float32
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search indexed files by semantic similarity",
	Long: `Embed the query text and return the most similar indexed documents.

Examples:
  semsearch query -q "connection pooling"
  semsearch query -q "retry logic" --top-k 5 --min-similarity 0.4 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "query text (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().Float32Var(&queryMinSim, "min-similarity", 0, "drop results scoring below this similarity")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

// queryResult is the JSON output shape for a single hit.
type queryResult struct {
	ID      string  `json:"id"`
	Score   float32 `json:"score"`
	Preview string  `json:"preview,omitempty"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	store, closer, err := openStore(false)
	if err != nil {
		return err
	}
	defer closer.Close()

	embedder, err := newEmbedder()
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	q := search.Query{
		Text:          queryText,
		MaxResults:    cfg.Search.TopK,
		MinSimilarity: cfg.Search.MinSimilarity,
	}
	if queryTopK > 0 {
		q.MaxResults = queryTopK
	}
	if cmd.Flags().Changed("min-similarity") {
		min := queryMinSim
		q.MinSimilarity = &min
	}

	matches, err := search.FindDocuments(cmd.Context(), embed.QueryFunc(embedder), q, store)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	results := make([]queryResult, len(matches))
	for i, m := range matches {
		results[i] = queryResult{ID: m.ID, Score: m.Score, Preview: preview(m.Content)}
	}

	asJSON := queryJSON || cfg.Search.Output == "json"
	if asJSON {
		output, _ := json.MarshalIndent(results, "", "  ")
		fmt.Println(string(output))
		return nil
	}
	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(results), queryText)
	for i, r := range results {
		fmt.Printf("%d. %s (score %.4f)\n", i+1, r.ID, r.Score)
		if r.Preview != "" {
			fmt.Printf("   %s\n", r.Preview)
		}
	}
	return nil
}

// preview returns the first line of content, truncated to 120 runes.
func preview(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	runes := []rune(line)
	if len(runes) > 120 {
		return string(runes[:120]) + "..."
	}
	return line
}
