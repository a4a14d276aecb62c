package operations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ligouras/locize-backup-docker/internal/config"
	"github.com/ligouras/locize-backup-docker/internal/locize"
	"github.com/ligouras/locize-backup-docker/internal/logger"
)

var runNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

const runTS = "20260823-120000"

// fakeUploader stands in for object storage in remote-mode tests.
type fakeUploader struct {
	uploads     []string
	summaryKeys []string
	failUploads bool
	failSummary bool
}

func (f *fakeUploader) Upload(ctx context.Context, localPath, key, version string) error {
	if f.failUploads {
		return &failErr{}
	}
	f.uploads = append(f.uploads, key)
	return nil
}

func (f *fakeUploader) UploadBytes(ctx context.Context, key string, data []byte, version string) error {
	if f.failSummary {
		return &failErr{}
	}
	f.summaryKeys = append(f.summaryKeys, key)
	return nil
}

func (f *fakeUploader) Location() string { return "s3://test-bucket" }

type failErr struct{}

func (*failErr) Error() string { return "storage unavailable" }

func testConfig(outputDir string) config.Config {
	return config.Config{
		ProjectID:    "proj-1",
		Languages:    []string{"en", "de"},
		Namespaces:   []string{"frontend", "backend"},
		Version:      "latest",
		MaxRetries:   2,
		FetchTimeout: 5 * time.Second,
		OutputDir:    outputDir,
	}
}

func testOperator(t *testing.T, cfg config.Config, endpoint string, store uploader) *Operator {
	t.Helper()
	return &Operator{
		cfg: cfg,
		log: logger.Global(),
		client: locize.New(cfg.ProjectID,
			locize.WithEndpoint(endpoint),
			locize.WithVersion(cfg.Version),
		),
		store: store,
		now:   func() time.Time { return runNow },
	}
}

func bundleServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"key":"value"}`))
	}))
}

func TestRun_LocalMode(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	op := testOperator(t, testConfig(dir), srv.URL, nil)

	require.NoError(t, op.Run(context.Background(), false))

	workDir := filepath.Join(dir, "2026", "08", "23")
	for _, name := range []string{
		"frontend-en-" + runTS + ".json",
		"backend-en-" + runTS + ".json",
		"frontend-de-" + runTS + ".json",
		"backend-de-" + runTS + ".json",
	} {
		_, err := os.Stat(filepath.Join(workDir, name))
		require.NoError(t, err, "missing artifact %s", name)
	}

	latest, err := FindLatestSummary(filepath.Join(dir, SummariesDirName))
	require.NoError(t, err)
	require.NotNil(t, latest)
	require.Equal(t, 4, latest.TotalCombinations)
	require.Equal(t, 4, latest.Successful)
	require.Equal(t, 0, latest.Failed)
	require.Equal(t, 100.0, latest.SuccessRate)
	require.Equal(t, "local", latest.StorageType)
	require.Empty(t, latest.FailedPairs)
}

func TestRun_SecondRunGated(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	op := testOperator(t, testConfig(dir), srv.URL, nil)

	require.NoError(t, op.Run(context.Background(), false))
	require.NoError(t, op.Run(context.Background(), false))

	entries, err := os.ReadDir(filepath.Join(dir, SummariesDirName))
	require.NoError(t, err)
	require.Len(t, entries, 1, "gated run must not write a new summary")
}

func TestRun_ForceBypassesGate(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	op := testOperator(t, testConfig(dir), srv.URL, nil)
	require.NoError(t, op.Run(context.Background(), false))

	// Advance the clock so the forced run gets a distinct timestamp.
	op.now = func() time.Time { return runNow.Add(time.Hour) }
	require.NoError(t, op.Run(context.Background(), true))

	entries, err := os.ReadDir(filepath.Join(dir, SummariesDirName))
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

func TestRun_FailedPairAccounting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/backend") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"key":"value"}`))
	}))
	defer srv.Close()

	dir := t.TempDir()
	op := testOperator(t, testConfig(dir), srv.URL, nil)

	err := op.Run(context.Background(), false)
	require.ErrorIs(t, err, ErrPairsFailed)

	latest, ferr := FindLatestSummary(filepath.Join(dir, SummariesDirName))
	require.NoError(t, ferr)
	require.NotNil(t, latest)
	require.Equal(t, 4, latest.TotalCombinations)
	require.Equal(t, 2, latest.Successful)
	require.Equal(t, 2, latest.Failed)
	require.Equal(t, latest.TotalCombinations, latest.Successful+latest.Failed)
	require.ElementsMatch(t, []string{"en/backend", "de/backend"}, latest.FailedPairs)
	require.Equal(t, 50.0, latest.SuccessRate)

	// No artifact may remain for a failed pair.
	workDir := filepath.Join(dir, "2026", "08", "23")
	_, statErr := os.Stat(filepath.Join(workDir, "backend-en-"+runTS+".json"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRun_RemoteModeUploadsAndCleansUp(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.BucketName = "test-bucket"
	cfg.CleanupLocalFiles = true

	store := &fakeUploader{}
	op := testOperator(t, cfg, srv.URL, store)

	require.NoError(t, op.Run(context.Background(), false))

	require.Len(t, store.uploads, 4)
	for _, key := range store.uploads {
		require.True(t, strings.HasPrefix(key, "2026/08/23/"), "bad key %s", key)
	}
	require.Equal(t, []string{"summaries/backup-summary-" + runTS + ".json"}, store.summaryKeys)

	// Working directory removed, summaries area untouched, local summary
	// removed after the confirmed remote write.
	_, err := os.Stat(filepath.Join(dir, "2026", "08", "23"))
	require.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(filepath.Join(dir, SummariesDirName))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestRun_SummaryDeliveryFailureIsNotFatal(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.BucketName = "test-bucket"
	cfg.CleanupLocalFiles = true

	store := &fakeUploader{failSummary: true}
	op := testOperator(t, cfg, srv.URL, store)

	require.NoError(t, op.Run(context.Background(), false))

	// Local summary survives when remote delivery fails.
	entries, err := os.ReadDir(filepath.Join(dir, SummariesDirName))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRun_UploadFailureRecordsPair(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.BucketName = "test-bucket"

	store := &fakeUploader{failUploads: true}
	op := testOperator(t, cfg, srv.URL, store)

	err := op.Run(context.Background(), false)
	require.ErrorIs(t, err, ErrPairsFailed)

	latest, ferr := FindLatestSummary(filepath.Join(dir, SummariesDirName))
	require.NoError(t, ferr)
	require.NotNil(t, latest)
	require.Equal(t, 4, latest.Failed)
	require.Equal(t, 0, latest.Successful)
}

func TestRun_CompressedArtifacts(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.Compress = true

	op := testOperator(t, cfg, srv.URL, nil)
	require.NoError(t, op.Run(context.Background(), false))

	workDir := filepath.Join(dir, "2026", "08", "23")
	_, err := os.Stat(filepath.Join(workDir, "frontend-en-"+runTS+".json.zst"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(workDir, "frontend-en-"+runTS+".json"))
	require.True(t, os.IsNotExist(err), "uncompressed original must be removed")
}

func TestRun_InterruptedRunRemovesWorkDir(t *testing.T) {
	srv := bundleServer(t)
	defer srv.Close()

	dir := t.TempDir()
	op := testOperator(t, testConfig(dir), srv.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := op.Run(ctx, false)
	require.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(dir, "2026", "08", "23"))
	require.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(dir, SummariesDirName))
	require.True(t, os.IsNotExist(statErr), "no summary for an interrupted run")
}
