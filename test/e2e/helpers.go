//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fyreone/firekb/internal/api/handlers"
	"github.com/fyreone/firekb/internal/domain"
	"github.com/fyreone/firekb/internal/jobs"
	"github.com/fyreone/firekb/internal/repository"
	"github.com/fyreone/firekb/internal/server"
	"github.com/fyreone/firekb/internal/service"
	"github.com/fyreone/firekb/internal/storage"
	"github.com/fyreone/firekb/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	RustFSC      *testutil.RustFSContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	Archive      *storage.SourceArchive
	BinaryDir    string
	HTTPClient   *http.Client
}

// SetupE2EEnv creates a full E2E test environment with containers, an
// in-process server, and a running ingestion worker backed by a
// deterministic embedder.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	s3C := testutil.NewRustFSContainer(ctx, t)

	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	archive, err := storage.NewSourceArchive(ctx, storage.SourceArchiveConfig{
		Endpoint:        s3C.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     "rustfsadmin",
		SecretAccessKey: "rustfsadmin",
		Bucket:          "test-archive",
		UsePathStyle:    true,
	})
	if err != nil {
		t.Fatalf("failed to create source archive: %v", err)
	}
	if err := archive.EnsureBucket(ctx); err != nil {
		t.Fatalf("failed to create bucket: %v", err)
	}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, archive, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		RustFSC:      s3C,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		Archive:      archive,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.RustFSC != nil {
		e.RustFSC.Terminate(e.Ctx)
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
	if e.BinaryDir != "" {
		os.RemoveAll(e.BinaryDir)
	}
}

// BuildBinaries builds the firekb and firekbd binaries
func (e *E2ETestEnv) BuildBinaries() {
	tmpDir, err := os.MkdirTemp("", "firekb-e2e-*")
	if err != nil {
		e.T.Fatalf("failed to create temp dir: %v", err)
	}
	e.BinaryDir = tmpDir

	cmd := exec.Command("go", "build", "-o", filepath.Join(tmpDir, "firekbd"), "./cmd/firekbd")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build firekbd: %v\n%s", err, out)
	}

	cmd = exec.Command("go", "build", "-o", filepath.Join(tmpDir, "firekb"), "./cmd/firekb")
	cmd.Dir = "../.."
	if out, err := cmd.CombinedOutput(); err != nil {
		e.T.Fatalf("failed to build firekb: %v\n%s", err, out)
	}
}

// RunFirekb runs the firekb CLI command against the test server
func (e *E2ETestEnv) RunFirekb(workDir string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "firekb"), args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("FIREKB_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// RunFirekbWithInput runs the firekb CLI command with stdin input
func (e *E2ETestEnv) RunFirekbWithInput(workDir string, input string, args ...string) (string, error) {
	cmd := exec.Command(filepath.Join(e.BinaryDir, "firekb"), args...)
	cmd.Dir = workDir
	cmd.Stdin = bytes.NewReader([]byte(input))
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("FIREKB_API_URL=%s", e.ServerURL),
	)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Put performs a PUT request
func (e *E2ETestEnv) Put(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("PUT", path, body)
}

// Delete performs a DELETE request
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// WaitForDocumentReady polls the document until ingestion finishes or the
// timeout expires.
func (e *E2ETestEnv) WaitForDocumentReady(documentID string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := e.Get("/documents/" + documentID)
		if err == nil {
			var doc struct {
				Status string `json:"status"`
			}
			if json.Unmarshal(resp.Data, &doc) == nil {
				switch doc.Status {
				case "ready":
					return
				case "failed":
					e.T.Fatalf("document %s failed ingestion", documentID)
				}
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	e.T.Fatalf("document %s not ready within %v", documentID, timeout)
}

// startServer wires the full service stack with a deterministic embedder and
// a fast-polling ingestion worker, then starts the HTTP server.
func startServer(t *testing.T, pool *pgxpool.Pool, archive *storage.SourceArchive, port int) (string, func()) {
	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	policyRepo := repository.NewPolicyRepository(pool)
	resultRepo := repository.NewAuditResultRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	searchLogRepo := repository.NewSearchLogRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	recorder := service.NewEventRecorder(eventRepo)
	embedder := &wordHashEmbedder{}

	docSvc := service.NewDocumentService(docRepo, jobRepo, txRunner, archive, recorder)
	feedbackSvc := service.NewFeedbackService(searchLogRepo, recorder)
	auditSvc := service.NewAuditService(policyRepo, resultRepo, docRepo, searchLogRepo, recorder, 30*time.Second)
	statsSvc := service.NewStatsService(docRepo, jobRepo, chunkRepo, searchLogRepo)
	eventLogSvc := service.NewEventLogService(eventRepo)
	searchSvc := service.NewSearchService(chunkRepo, embedder, searchLogRepo, recorder)

	orchestrator := service.NewIngestionOrchestrator(docRepo, jobRepo, embedder, txRunner, recorder)
	ingestionWorker, err := jobs.NewIngestionWorker(jobRepo, orchestrator, 2, 10)
	if err != nil {
		t.Fatalf("failed to create ingestion worker: %v", err)
	}
	worker := jobs.NewWorker(ingestionWorker, 100*time.Millisecond)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go worker.Start(workerCtx)

	cfg := server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(docSvc),
		SearchHandler:   handlers.NewSearchHandler(searchSvc, feedbackSvc),
		AuditHandler:    handlers.NewAuditHandler(auditSvc),
		AdminHandler:    handlers.NewAdminHandler(statsSvc),
		EventHandler:    handlers.NewEventHandler(eventLogSvc),
	}

	router := server.NewRouter(cfg)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		cancelWorker()
		worker.Stop()
		ingestionWorker.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// wordHashEmbedder produces deterministic embeddings by hashing each word
// into a dimension. Texts sharing vocabulary get high cosine similarity, so
// search behaves sensibly without a real provider.
type wordHashEmbedder struct{}

func (e *wordHashEmbedder) Embed(ctx context.Context, text string) (domain.Embedding, error) {
	return hashText(text), nil
}

func (e *wordHashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([]domain.Embedding, error) {
	embeddings := make([]domain.Embedding, len(texts))
	for i, text := range texts {
		embeddings[i] = hashText(text)
	}
	return embeddings, nil
}

func hashText(text string) domain.Embedding {
	vec := make([]float32, domain.EmbeddingDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%domain.EmbeddingDim] += 1
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	embedding, err := domain.EmbeddingFromSlice(vec)
	if err != nil {
		// EmbeddingDim-sized slices always convert.
		panic(err)
	}
	return embedding
}
