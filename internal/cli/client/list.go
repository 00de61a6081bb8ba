package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// ListCmd creates the list command.
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runList(cmd, outputJSON)
		},
	}

	return cmd
}

func runList(cmd *cobra.Command, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/documents")
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	var docs []DocumentResponse
	if err := json.Unmarshal(resp.Data, &docs); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(docs, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(docs) == 0 {
		fmt.Println("No documents found.")
		return nil
	}

	for _, doc := range docs {
		active := ""
		if !doc.IsActive {
			active = "  (inactive)"
		}
		fmt.Printf("%s  v%d  %-10s  %s%s\n", doc.ID, doc.Version, doc.Status, doc.Title, active)
	}
	return nil
}
