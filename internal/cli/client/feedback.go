package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// FeedbackCmd creates the feedback command.
func FeedbackCmd() *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "feedback <search-id> <positive|negative>",
		Short: "Rate a previous search",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedback(cmd, args[0], args[1], note)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "Optional note explaining the rating")

	return cmd
}

func runFeedback(cmd *cobra.Command, searchID, rating, note string) error {
	if rating != "positive" && rating != "negative" {
		return fmt.Errorf("rating must be 'positive' or 'negative', got %q", rating)
	}

	api, err := NewAPIClientWithCmd(cmd)
	if err != nil {
		return err
	}

	body := map[string]string{"rating": rating}
	if note != "" {
		body["note"] = note
	}

	if _, err := api.Post("/search/"+searchID+"/feedback", body); err != nil {
		return fmt.Errorf("feedback failed: %w", err)
	}

	fmt.Println("Feedback recorded.")
	return nil
}
