package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// SearchRequest represents the search API request.
type SearchRequest struct {
	Query     string   `json:"query"`
	Limit     int      `json:"limit,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// SearchResult represents a single ranked chunk.
type SearchResult struct {
	ChunkID    string  `json:"chunk_id"`
	DocumentID string  `json:"document_id"`
	ChunkIndex int     `json:"chunk_index"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}

// SearchResponse represents the search API response.
type SearchResponse struct {
	SearchID string         `json:"search_id"`
	Results  []SearchResult `json:"results"`
	TookMS   int64          `json:"took_ms"`
}

// SearchCmd creates the search command.
func SearchCmd() *cobra.Command {
	var (
		limit     int
		threshold float64
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search document chunks",
		Long:  "Searches ready documents by embedding similarity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			req := SearchRequest{Query: args[0], Limit: limit}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}
			return runSearch(cmd, req, outputJSON)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of results")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Minimum cosine similarity (0..1)")

	return cmd
}

func runSearch(cmd *cobra.Command, req SearchRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/search", req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	var searchResp SearchResponse
	if err := json.Unmarshal(resp.Data, &searchResp); err != nil {
		return fmt.Errorf("failed to parse search results: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(searchResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(searchResp.Results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results in %dms (search %s):\n\n", len(searchResp.Results), searchResp.TookMS, searchResp.SearchID)
	for i, result := range searchResp.Results {
		content := strings.TrimSpace(result.Content)
		if len(content) > 160 {
			content = content[:157] + "..."
		}
		fmt.Printf("%d. [%.3f] document %s, chunk %d\n", i+1, result.Similarity, result.DocumentID, result.ChunkIndex)
		fmt.Printf("   %s\n", content)
		if i < len(searchResp.Results)-1 {
			fmt.Println(strings.Repeat("-", 40))
		}
	}
	fmt.Printf("\nRate these results: firekb feedback %s positive|negative\n", searchResp.SearchID)
	return nil
}
