package admin

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fyreone/firekb/internal/api/handlers"
	"github.com/fyreone/firekb/internal/config"
	"github.com/fyreone/firekb/internal/database"
	"github.com/fyreone/firekb/internal/jobs"
	"github.com/fyreone/firekb/internal/openai"
	"github.com/fyreone/firekb/internal/repository"
	"github.com/fyreone/firekb/internal/server"
	"github.com/fyreone/firekb/internal/service"
	"github.com/fyreone/firekb/internal/storage"
	"github.com/fyreone/firekb/internal/telemetry"
	"github.com/spf13/cobra"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the firekb API server and the background ingestion worker",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not start the background ingestion worker")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.SentryDSN != "" {
		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              cfg.SentryDSN,
			Environment:      cfg.SentryEnv,
			TracesSampleRate: cfg.SentrySampleRate,
			Debug:            cfg.Debug,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	resultRepo := repository.NewAuditResultRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	recorder := service.NewEventRecorder(eventRepo)

	var archive service.SourceArchive
	if cfg.HasS3() {
		s3Archive, err := storage.NewSourceArchive(ctx, storage.SourceArchiveConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return fmt.Errorf("failed to create source archive: %w", err)
		}
		if err := s3Archive.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure archive bucket: %w", err)
		}
		log.Printf("source archive bucket '%s' ready", cfg.S3Bucket)
		archive = s3Archive
	}

	docSvc := service.NewDocumentService(docRepo, jobRepo, txRunner, archive, recorder)
	feedbackSvc := service.NewFeedbackService(searchLogRepo, recorder)
	auditSvc := service.NewAuditService(policyRepo, resultRepo, docRepo, searchLogRepo, recorder, cfg.PolicyTimeout)
	statsSvc := service.NewStatsService(docRepo, jobRepo, chunkRepo, searchLogRepo)
	eventLogSvc := service.NewEventLogService(eventRepo)

	var searchSvc handlers.SearchService = &noOpSearchService{}
	var worker *jobs.Worker
	var ingestionWorker *jobs.IngestionWorker
	noWorker, _ := cmd.Flags().GetBool("no-worker")
	if cfg.HasOpenAI() {
		embedClient := openai.NewClient(cfg.OpenAIAPIKey)
		searchSvc = service.NewSearchService(chunkRepo, embedClient, searchLogRepo, recorder)

		if !noWorker {
			orchestrator := service.NewIngestionOrchestrator(docRepo, jobRepo, embedClient, txRunner, recorder)
			ingestionWorker, err = jobs.NewIngestionWorker(jobRepo, orchestrator, cfg.WorkerPoolSize, cfg.WorkerClaimLimit)
			if err != nil {
				return fmt.Errorf("failed to create ingestion worker: %w", err)
			}
			worker = jobs.NewWorker(ingestionWorker, cfg.WorkerPollInterval)
			go worker.Start(ctx)
			log.Println("ingestion worker started")
		}
	} else {
		log.Println("OPENAI_API_KEY not set: search disabled, ingestion worker not started")
	}

	routerCfg := server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(docSvc),
		SearchHandler:   handlers.NewSearchHandler(searchSvc, feedbackSvc),
		AuditHandler:    handlers.NewAuditHandler(auditSvc),
		AdminHandler:    handlers.NewAdminHandler(statsSvc),
		EventHandler:    handlers.NewEventHandler(eventLogSvc),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if worker != nil {
		worker.Stop()
	}
	if ingestionWorker != nil {
		ingestionWorker.Release()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

type noOpSearchService struct{}

func (s *noOpSearchService) Search(ctx context.Context, input service.SearchInput) (*service.SearchOutput, error) {
	return nil, fmt.Errorf("search not configured: OPENAI_API_KEY required")
}
