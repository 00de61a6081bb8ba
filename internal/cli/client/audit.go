package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// PolicyResponse mirrors the API audit policy payload.
type PolicyResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	PolicyType string         `json:"policy_type"`
	Config     map[string]any `json:"config"`
	IsActive   bool           `json:"is_active"`
	LastRunAt  *string        `json:"last_run_at,omitempty"`
}

// ResultResponse mirrors the API audit result payload.
type ResultResponse struct {
	ID                string   `json:"id"`
	PolicyID          string   `json:"policy_id"`
	Status            string   `json:"status"`
	Summary           string   `json:"summary"`
	AffectedDocuments []string `json:"affected_documents,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
	ResolvedBy        string   `json:"resolved_by,omitempty"`
	CreatedAt         string   `json:"created_at"`
}

// AuditCmd creates the audit command group.
func AuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect and run audit policies",
	}

	cmd.AddCommand(auditPoliciesCmd())
	cmd.AddCommand(auditRunCmd())
	cmd.AddCommand(auditResultsCmd())

	return cmd
}

func auditPoliciesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policies",
		Short: "List audit policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			resp, err := api.Get("/policies")
			if err != nil {
				return fmt.Errorf("failed to list policies: %w", err)
			}

			var policies []PolicyResponse
			if err := json.Unmarshal(resp.Data, &policies); err != nil {
				return fmt.Errorf("failed to parse policies: %w", err)
			}

			if outputJSON {
				output, _ := json.MarshalIndent(policies, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			if len(policies) == 0 {
				fmt.Println("No policies configured.")
				return nil
			}
			for _, p := range policies {
				state := "active"
				if !p.IsActive {
					state = "inactive"
				}
				lastRun := "never"
				if p.LastRunAt != nil {
					lastRun = *p.LastRunAt
				}
				fmt.Printf("%s  %-20s  %-10s  last run: %s  (%s)\n", p.ID, p.PolicyType, state, lastRun, p.Name)
			}
			return nil
		},
	}
}

func auditRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [policy-id]",
		Short: "Run all active policies, or one policy by id",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			var results []ResultResponse
			if len(args) == 1 {
				resp, err := api.Post("/policies/"+args[0]+"/run", nil)
				if err != nil {
					return fmt.Errorf("failed to run policy: %w", err)
				}
				var result ResultResponse
				if err := json.Unmarshal(resp.Data, &result); err != nil {
					return fmt.Errorf("failed to parse result: %w", err)
				}
				results = append(results, result)
			} else {
				resp, err := api.Post("/policies/run", nil)
				if err != nil {
					return fmt.Errorf("failed to run policies: %w", err)
				}
				if err := json.Unmarshal(resp.Data, &results); err != nil {
					return fmt.Errorf("failed to parse results: %w", err)
				}
			}

			if outputJSON {
				output, _ := json.MarshalIndent(results, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			printResults(results)
			return nil
		},
	}
}

func auditResultsCmd() *cobra.Command {
	var (
		policyID string
		status   string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recent audit results",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("output")

			api, err := NewAPIClientWithCmd(cmd)
			if err != nil {
				return err
			}

			path := fmt.Sprintf("/audit/results?limit=%d", limit)
			if policyID != "" {
				path += "&policy_id=" + policyID
			}
			if status != "" {
				path += "&status=" + status
			}

			resp, err := api.Get(path)
			if err != nil {
				return fmt.Errorf("failed to list results: %w", err)
			}

			var results []ResultResponse
			if err := json.Unmarshal(resp.Data, &results); err != nil {
				return fmt.Errorf("failed to parse results: %w", err)
			}

			if outputJSON {
				output, _ := json.MarshalIndent(results, "", "  ")
				fmt.Println(string(output))
				return nil
			}

			if len(results) == 0 {
				fmt.Println("No results found.")
				return nil
			}
			printResults(results)
			return nil
		},
	}

	cmd.Flags().StringVar(&policyID, "policy", "", "Filter by policy id")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pass|warning|fail|error)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")

	return cmd
}

func printResults(results []ResultResponse) {
	for i, result := range results {
		fmt.Printf("%s  [%s]  %s\n", result.ID, strings.ToUpper(result.Status), result.Summary)
		if len(result.AffectedDocuments) > 0 {
			fmt.Printf("  Affected: %s\n", strings.Join(result.AffectedDocuments, ", "))
		}
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
		if i < len(results)-1 {
			fmt.Println()
		}
	}
}
