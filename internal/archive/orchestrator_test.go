package archive_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saitan/internal/archive"
	"saitan/internal/config"
	"saitan/internal/fileutil"
	"saitan/internal/services"
	"saitan/internal/services/wayback"
)

type callLog struct {
	calls []string
}

type stubSaver struct {
	name  string
	log   *callLog
	value string
	err   error
}

func (s stubSaver) Save(_ context.Context, rawURL string) (string, error) {
	s.log.calls = append(s.log.calls, s.name)
	return s.value, s.err
}

func stubFile(name string, log *callLog, value string, err error) archive.FileAction {
	return archive.FileActionFunc(func(_ context.Context, path string) (string, error) {
		log.calls = append(log.calls, name+":"+path)
		return value, err
	})
}

func allBackends(log *callLog) archive.Backends {
	return archive.Backends{
		Snapshot:     stubSaver{name: "snapshot", log: log, value: "https://web.archive.org/web/1/x"},
		Secondary:    stubSaver{name: "secondary", log: log, value: "https://archive.ph/abc"},
		LocalCapture: stubSaver{name: "local-capture", log: log, value: "example_com_page.warc.gz"},
		Timestamp:    stubFile("timestamp", log, "example_com_page.warc.gz.ots", nil),
		Checksum:     stubFile("checksum", log, "deadbeef", nil),
		Upload:       stubFile("upload", log, "s3://b/example_com_page.warc.gz", nil),
	}
}

const pageURL = "https://example.com/page"

func TestRunRejectsInvalidURLBeforeAnyBackend(t *testing.T) {
	log := &callLog{}
	orch := archive.New(allBackends(log))

	run, err := orch.Run(context.Background(), archive.NewRequest("not a url", archive.Options{Snapshot: true, LocalCapture: true}))
	require.ErrorIs(t, err, archive.ErrInvalidURL)
	assert.Nil(t, run)
	assert.Empty(t, log.calls)
}

func TestRunAllActionsInFixedOrder(t *testing.T) {
	log := &callLog{}
	orch := archive.New(allBackends(log))
	opts := archive.Options{Upload: true, Checksum: true, Timestamp: true, LocalCapture: true, Secondary: true, Snapshot: true}

	run, err := orch.Run(context.Background(), archive.NewRequest(pageURL, opts))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"snapshot",
		"secondary",
		"local-capture",
		"timestamp:example_com_page.warc.gz",
		"checksum:example_com_page.warc.gz",
		"upload:example_com_page.warc.gz",
	}, log.calls)

	var order []archive.Action
	for _, result := range run.Results.Ordered() {
		order = append(order, result.Action)
		assert.Equal(t, archive.StatusOK, result.Status)
	}
	assert.Equal(t, archive.Order, order)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, pageURL, run.URL)
	assert.False(t, run.Finished.Before(run.Started))
}

func TestRunSnapshotFailureDoesNotStopOtherActions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	log := &callLog{}
	backends := allBackends(log)
	backends.Snapshot = wayback.New(config.Wayback{SaveURL: server.URL + "/save", BaseURL: server.URL}, "test", wayback.WithHTTPClient(server.Client()))
	orch := archive.New(backends)

	run, err := orch.Run(context.Background(), archive.NewRequest(pageURL, archive.Options{Snapshot: true, Secondary: true}))
	require.NoError(t, err)

	snapshot := run.Results[archive.ActionSnapshot]
	assert.Equal(t, archive.StatusFailed, snapshot.Status)
	assert.Equal(t, archive.FailureMarker, snapshot.Display())
	assert.Equal(t, services.KindNetwork, snapshot.Kind)
	assert.Equal(t, "https://archive.ph/abc", run.Results[archive.ActionSecondary].Display())
	assert.Equal(t, []string{"secondary"}, log.calls)
}

func TestRunIgnoresPostCaptureWithoutLocalCapture(t *testing.T) {
	log := &callLog{}
	orch := archive.New(allBackends(log))

	run, err := orch.Run(context.Background(), archive.NewRequest(pageURL, archive.Options{Timestamp: true, Checksum: true, Upload: true}))
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	assert.Empty(t, log.calls)
}

func TestRunSkipsPostCaptureWhenCaptureFails(t *testing.T) {
	log := &callLog{}
	backends := allBackends(log)
	backends.LocalCapture = stubSaver{name: "local-capture", log: log, err: services.Wrap(services.ErrExternalTool, "local-capture", "wget", "", errors.New("exit status 4"))}
	orch := archive.New(backends)

	run, err := orch.Run(context.Background(), archive.NewRequest(pageURL, archive.Options{LocalCapture: true, Timestamp: true, Checksum: true}))
	require.NoError(t, err)
	assert.Equal(t, []string{"local-capture"}, log.calls)

	capture := run.Results[archive.ActionLocalCapture]
	assert.Equal(t, archive.StatusFailed, capture.Status)
	assert.Equal(t, services.KindProcess, capture.Kind)
	for _, action := range []archive.Action{archive.ActionTimestamp, archive.ActionChecksum} {
		result, ok := run.Results[action]
		require.True(t, ok, action)
		assert.Equal(t, archive.StatusSkipped, result.Status)
		assert.Equal(t, archive.SkippedMarker, result.Display())
	}
	_, uploaded := run.Results[archive.ActionUpload]
	assert.False(t, uploaded, "unrequested actions never appear")
}

func TestRunWithoutActions(t *testing.T) {
	log := &callLog{}
	run, err := archive.New(allBackends(log)).Run(context.Background(), archive.NewRequest(pageURL, archive.Options{}))
	require.NoError(t, err)
	assert.Empty(t, run.Results)
}

func TestRunMissingBackendFailsAsUnavailable(t *testing.T) {
	log := &callLog{}
	backends := allBackends(log)
	backends.Upload = nil

	run, err := archive.New(backends).Run(context.Background(), archive.NewRequest(pageURL, archive.Options{LocalCapture: true, Upload: true}))
	require.NoError(t, err)
	upload := run.Results[archive.ActionUpload]
	assert.Equal(t, archive.StatusFailed, upload.Status)
	assert.Equal(t, services.KindUnavailable, upload.Kind)
}

func TestRunEmptyValueIsFailure(t *testing.T) {
	log := &callLog{}
	backends := allBackends(log)
	backends.Secondary = stubSaver{name: "secondary", log: log, value: "  "}

	run, err := archive.New(backends).Run(context.Background(), archive.NewRequest(pageURL, archive.Options{Secondary: true}))
	require.NoError(t, err)
	assert.Equal(t, archive.StatusFailed, run.Results[archive.ActionSecondary].Status)
}

type blockingSaver struct{}

func (blockingSaver) Save(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", services.Wrap(services.ErrNetwork, "snapshot", "request", "", ctx.Err())
}

func TestRunAppliesPerActionTimeout(t *testing.T) {
	log := &callLog{}
	backends := allBackends(log)
	backends.Snapshot = blockingSaver{}
	orch := archive.New(backends, archive.WithTimeouts(map[archive.Action]time.Duration{
		archive.ActionSnapshot: 20 * time.Millisecond,
	}))

	run, err := orch.Run(context.Background(), archive.NewRequest(pageURL, archive.Options{Snapshot: true, Secondary: true}))
	require.NoError(t, err)
	assert.Equal(t, services.KindTimeout, run.Results[archive.ActionSnapshot].Kind)
	assert.Equal(t, archive.StatusOK, run.Results[archive.ActionSecondary].Status, "later actions get a fresh deadline")
}

func TestRunChecksumOnRealCapture(t *testing.T) {
	dir := t.TempDir()
	capturePath := filepath.Join(dir, "example_com_page.warc.gz")
	require.NoError(t, os.WriteFile(capturePath, nil, 0o644))

	log := &callLog{}
	backends := allBackends(log)
	backends.LocalCapture = stubSaver{name: "local-capture", log: log, value: capturePath}
	backends.Checksum = archive.FileActionFunc(func(_ context.Context, path string) (string, error) {
		return fileutil.ChecksumFile(path)
	})

	run, err := archive.New(backends).Run(context.Background(), archive.NewRequest(pageURL, archive.Options{LocalCapture: true, Checksum: true}))
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", run.Results[archive.ActionChecksum].Value)
	assert.FileExists(t, capturePath+".sha256")
}
