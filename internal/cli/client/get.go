package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// GetCmd creates the get command.
func GetCmd() *cobra.Command {
	var showRevisions, showJobs bool

	cmd := &cobra.Command{
		Use:   "get <document-id>",
		Short: "Show a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")
			return runGet(cmd, args[0], showRevisions, showJobs, outputJSON)
		},
	}

	cmd.Flags().BoolVar(&showRevisions, "revisions", false, "Also list the document's revisions")
	cmd.Flags().BoolVar(&showJobs, "jobs", false, "Also list the document's ingestion jobs")

	return cmd
}

func runGet(cmd *cobra.Command, id string, showRevisions, showJobs, outputJSON bool) error {
	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Get("/documents/" + id)
	if err != nil {
		return fmt.Errorf("get failed: %w", err)
	}

	var doc DocumentResponse
	if err := json.Unmarshal(resp.Data, &doc); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Printf("%s\n", doc.Title)
		fmt.Printf("  ID:      %s\n", doc.ID)
		fmt.Printf("  Status:  %s\n", doc.Status)
		fmt.Printf("  Version: %d\n", doc.Version)
		fmt.Printf("  Active:  %t\n", doc.IsActive)
		if doc.Category != "" {
			fmt.Printf("  Category: %s\n", doc.Category)
		}
		fmt.Printf("  Updated: %s\n", doc.UpdatedAt)
	}

	if showRevisions {
		if err := printRevisions(api, id, outputJSON); err != nil {
			return err
		}
	}
	if showJobs {
		if err := printJobs(api, id, outputJSON); err != nil {
			return err
		}
	}
	return nil
}

func printRevisions(api *APIClient, id string, outputJSON bool) error {
	resp, err := api.Get("/documents/" + id + "/revisions")
	if err != nil {
		return fmt.Errorf("failed to list revisions: %w", err)
	}

	var revisions []RevisionResponse
	if err := json.Unmarshal(resp.Data, &revisions); err != nil {
		return fmt.Errorf("failed to parse revisions: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(revisions, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("\nRevisions (%d):\n", len(revisions))
	for _, rev := range revisions {
		fmt.Printf("  v%d  %s  %s\n", rev.Version, rev.CreatedAt, rev.ContentHash[:12])
		if rev.ChangeReason != "" {
			fmt.Printf("      %s\n", rev.ChangeReason)
		}
	}
	return nil
}

func printJobs(api *APIClient, id string, outputJSON bool) error {
	resp, err := api.Get("/documents/" + id + "/jobs")
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	var jobList []JobResponse
	if err := json.Unmarshal(resp.Data, &jobList); err != nil {
		return fmt.Errorf("failed to parse jobs: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(jobList, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("\nJobs (%d):\n", len(jobList))
	for _, job := range jobList {
		fmt.Printf("  %s  %s  %s (%d%%)\n", job.ID, job.JobType, job.Status, job.Progress)
		if job.ErrorMessage != "" {
			fmt.Printf("      error: %s\n", job.ErrorMessage)
		}
	}
	return nil
}
