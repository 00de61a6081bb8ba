package admin

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyreone/firekb/internal/config"
	"github.com/fyreone/firekb/internal/database"
	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/repository"
	"github.com/fyreone/firekb/internal/service"
	"github.com/spf13/cobra"
)

// AuditCmd returns the audit command for running policies from the CLI,
// outside the HTTP server. Useful for cron-driven evaluation.
func AuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Run audit policies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run [policy-id]",
		Short: "Evaluate audit policies and print results",
		Long:  "Evaluates every active audit policy, or a single policy when an id is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAudit,
	})

	return cmd
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	docRepo := repository.NewDocumentRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	resultRepo := repository.NewAuditResultRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)

	recorder := service.NewEventRecorder(eventRepo)
	auditSvc := service.NewAuditService(policyRepo, resultRepo, docRepo, searchLogRepo, recorder, cfg.PolicyTimeout)

	var results []*domain.AuditResult
	if len(args) == 1 {
		result, err := auditSvc.RunPolicy(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to run policy: %w", err)
		}
		results = append(results, result)
	} else {
		results, err = auditSvc.RunAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to run policies: %w", err)
		}
	}

	if len(results) == 0 {
		fmt.Println("No active policies to evaluate.")
		return nil
	}

	for i, result := range results {
		fmt.Printf("%s  [%s]\n", result.PolicyID, strings.ToUpper(string(result.Status)))
		fmt.Printf("  %s\n", result.Summary)
		if len(result.AffectedDocuments) > 0 {
			fmt.Printf("  Affected documents: %s\n", strings.Join(result.AffectedDocuments, ", "))
		}
		for _, rec := range result.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}
