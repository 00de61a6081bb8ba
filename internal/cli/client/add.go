package client

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// AddRequest represents the document submit API request.
type AddRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	SourceType  string `json:"source_type,omitempty"`
	Content     string `json:"content"`
}

// AddCmd creates the add command.
func AddCmd() *cobra.Command {
	var (
		title       string
		description string
		category    string
		sourceType  string
	)

	cmd := &cobra.Command{
		Use:   "add [file]",
		Short: "Submit a document for ingestion",
		Long:  "Submits a document read from a file, or from stdin when no file is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			var content []byte
			var err error
			if len(args) == 1 {
				content, err = os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				if title == "" {
					title = args[0]
				}
			} else {
				content, err = io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
			}

			if title == "" {
				return fmt.Errorf("--title is required when reading from stdin")
			}

			return runAdd(cmd, AddRequest{
				Title:       title,
				Description: description,
				Category:    category,
				SourceType:  sourceType,
				Content:     string(content),
			}, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title (defaults to the file name)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Document description")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Document category")
	cmd.Flags().StringVar(&sourceType, "source", "", "Source type (default: manual)")

	return cmd
}

func runAdd(cmd *cobra.Command, req AddRequest, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Post("/documents", req)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}

	var submitResp SubmitResponse
	if err := json.Unmarshal(resp.Data, &submitResp); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(submitResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Submitted document %s (version %d)\n", submitResp.Document.ID, submitResp.Document.Version)
	if submitResp.Job != nil {
		fmt.Printf("Ingestion job %s queued\n", submitResp.Job.ID)
	}
	return nil
}
