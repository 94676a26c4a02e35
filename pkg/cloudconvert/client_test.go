// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cloudconvert

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/cloudconvert/pkg/types"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// --- Convert ---

func TestConvert_CreatesProcessThenUploads(t *testing.T) {
	api := newFakeAPI(t)
	path := writeTempFile(t, "photo.jpg", "jpg content")

	p, err := api.client().Convert(context.Background(), NewFileSource(path, "jpg"), "pdf")
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, 2, api.count(http.MethodPost))

	create := reqs[0]
	assert.Equal(t, "/process", create.Path)
	assert.Equal(t, "Bearer secret-key", create.Header.Get("Authorization"))
	assert.Equal(t, "multipart/form-data", create.Header.Get("Content-Type"))
	assert.Equal(t, map[string]any{"inputformat": "jpg", "outputformat": "pdf"}, decodeJSON(t, create.Body))

	start := reqs[1]
	assert.Equal(t, "/process/abc", start.Path)
	assert.Equal(t, map[string]string{"input": "upload", "wait": "true", "outputformat": "pdf"}, start.Form)
	require.Len(t, start.Files, 1)
	assert.Equal(t, capturedFile{Field: "file", Filename: "photo.jpg.jpg", Content: "jpg content"}, start.Files[0])

	assert.Equal(t, ProcessConvert, p.Kind())
	assert.Equal(t, "pdf", p.OutputFormat())
	assert.Equal(t, "finished", p.Response.Step())
	assert.Equal(t, "pdf", p.Response.OutputExt())
	assert.Equal(t, "//"+api.host()+"/result/file.pdf", p.Response.URL())
}

func TestConvert_ResponseEqualsSecondCallJSON(t *testing.T) {
	api := newFakeAPI(t)
	api.startBody = `{"id": "p1", "step": "convert", "percent": 42, "output": {"ext": "png"}}`

	p, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "png")
	require.NoError(t, err)

	assert.Equal(t, Response{
		"id":      "p1",
		"step":    "convert",
		"percent": float64(42),
		"output":  map[string]any{"ext": "png"},
	}, p.Response)
}

func TestConvert_ProcessURLIsMadeAbsolute(t *testing.T) {
	api := newFakeAPI(t)

	p, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "http://"+api.host()+"/process/abc", p.URL())
}

func TestConvert_ProcessCreationStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"server error", http.StatusInternalServerError},
		{"unauthorized", http.StatusUnauthorized},
		{"created is not accepted", http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.processStatus = tt.status

			p, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
			assert.Nil(t, p)
			require.ErrorIs(t, err, ErrWrongRequestData)
			assert.ErrorIs(t, err, ErrCloudConvert)

			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.status, reqErr.StatusCode)
			assert.Equal(t, "create process", reqErr.Op)

			// No further calls after a failed process creation.
			assert.Len(t, api.recorded(), 1)
		})
	}
}

func TestConvert_ProcessResponseWithoutURL(t *testing.T) {
	api := newFakeAPI(t)
	api.processBody = `{"id": "abc"}`

	_, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	assert.ErrorIs(t, err, ErrWrongRequestData)
	assert.Len(t, api.recorded(), 1)
}

func TestConvert_StartStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{"ok", http.StatusOK, false},
		{"created", http.StatusCreated, false},
		{"accepted is rejected", http.StatusAccepted, true},
		{"bad request", http.StatusBadRequest, true},
		{"server error", http.StatusInternalServerError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI(t)
			api.startStatus = tt.status

			_, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrWrongRequestData)
			var reqErr *RequestError
			require.True(t, errors.As(err, &reqErr))
			assert.Equal(t, tt.status, reqErr.StatusCode)
		})
	}
}

func TestConvert_InvalidJSONResponse(t *testing.T) {
	api := newFakeAPI(t)
	api.startBody = `not json`

	_, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	assert.ErrorIs(t, err, ErrWrongRequestData)
}

func TestConvert_NilSource(t *testing.T) {
	api := newFakeAPI(t)

	_, err := api.client().Convert(context.Background(), nil, "pdf")
	assert.ErrorIs(t, err, ErrMissingFile)
	assert.Empty(t, api.recorded())
}

func TestConvert_UnreadableFile(t *testing.T) {
	api := newFakeAPI(t)
	missing := filepath.Join(t.TempDir(), "missing.jpg")

	_, err := api.client().Convert(context.Background(), NewFileSource(missing, "jpg"), "pdf")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	// The process was created but the upload never happened.
	assert.Equal(t, 1, api.count(http.MethodPost))
}

func TestConvert_URLSourceIsFetchedAndUploaded(t *testing.T) {
	api := newFakeAPI(t)
	src := NewURLSource(api.srv.Client(), api.srv.URL+"/result/file.pdf", "pdf")

	_, err := api.client().Convert(context.Background(), src, "docx")
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 3)
	start := reqs[2]
	assert.Equal(t, "download", start.Form["input"])
	require.Len(t, start.Files, 1)
	assert.Equal(t, ".pdf", start.Files[0].Filename)
	assert.Equal(t, fakePDFContent, start.Files[0].Content)
}

// --- Merge ---

func urlSources(api *fakeAPI, n int) []InputSource {
	sources := make([]InputSource, n)
	for i := range sources {
		sources[i] = NewURLSource(nil, api.srv.URL+"/doc"+string(rune('a'+i))+".pdf", "pdf")
	}
	return sources
}

func TestMerge_BuildsJSONRequest(t *testing.T) {
	api := newFakeAPI(t)

	p, err := api.client().Merge(context.Background(), urlSources(api, 3))
	require.NoError(t, err)

	reqs := api.recorded()
	require.Len(t, reqs, 2)
	assert.Equal(t, map[string]any{"inputformat": "pdf", "outputformat": "pdf"}, decodeJSON(t, reqs[0].Body))

	start := reqs[1]
	assert.Equal(t, "application/json", start.Header.Get("Content-Type"))
	assert.Equal(t, "text/plain", start.Header.Get("Accept"))
	assert.Equal(t, map[string]any{
		"input":        "download",
		"wait":         true,
		"outputformat": "pdf",
		"filename":     "merged.pdf",
		"file": []any{
			map[string]any{"file": api.srv.URL + "/doca.pdf", "filename": "0.pdf"},
			map[string]any{"file": api.srv.URL + "/docb.pdf", "filename": "1.pdf"},
			map[string]any{"file": api.srv.URL + "/docc.pdf", "filename": "2.pdf"},
		},
	}, decodeJSON(t, start.Body))

	assert.Equal(t, ProcessMerge, p.Kind())
	assert.Len(t, p.Files(), 3)
}

func TestMerge_TooManyFiles(t *testing.T) {
	api := newFakeAPI(t)

	_, err := api.client().Merge(context.Background(), urlSources(api, DefaultMaxFiles+1))
	require.ErrorIs(t, err, ErrFilesCount)
	assert.ErrorIs(t, err, ErrCloudConvert)
	assert.Empty(t, api.recorded())
}

func TestMerge_ExactlyMaxFiles(t *testing.T) {
	api := newFakeAPI(t)

	_, err := api.client().Merge(context.Background(), urlSources(api, DefaultMaxFiles))
	require.NoError(t, err)
}

func TestMerge_ConfiguredMaxFiles(t *testing.T) {
	api := newFakeAPI(t)
	c := New(api.srv.Client(), types.ClientConfig{ProcessURL: api.srv.URL + "/process", MaxFiles: 2})

	assert.Equal(t, 2, c.MaxFiles())
	_, err := c.Merge(context.Background(), urlSources(api, 3))
	assert.ErrorIs(t, err, ErrFilesCount)
	assert.Empty(t, api.recorded())
}

func TestMerge_NoSources(t *testing.T) {
	api := newFakeAPI(t)

	_, err := api.client().Merge(context.Background(), nil)
	require.ErrorIs(t, err, ErrMissingFile)

	// Process creation happened; the merge POST did not.
	reqs := api.recorded()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/process", reqs[0].Path)
}

func TestMerge_LocalFileRejected(t *testing.T) {
	api := newFakeAPI(t)
	path := writeTempFile(t, "a.pdf", "pdf")

	_, err := api.client().Merge(context.Background(), []InputSource{NewFileSource(path, "pdf")})
	assert.ErrorIs(t, err, ErrUnsupportedSource)
	assert.Equal(t, 1, api.count(http.MethodPost))
}

func TestMerge_ProcessCreationFails(t *testing.T) {
	api := newFakeAPI(t)
	api.processStatus = http.StatusForbidden

	_, err := api.client().Merge(context.Background(), urlSources(api, 2))
	assert.ErrorIs(t, err, ErrWrongRequestData)
	assert.Len(t, api.recorded(), 1)
}

// --- Download ---

func TestDownload_ReturnsBodyUnchanged(t *testing.T) {
	api := newFakeAPI(t)

	p, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)

	data, err := p.Download(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte(fakePDFContent), data)

	reqs := api.recorded()
	last := reqs[len(reqs)-1]
	assert.Equal(t, http.MethodGet, last.Method)
	assert.Equal(t, "/result/file.pdf", last.Path)
}

func TestDownload_NoURL(t *testing.T) {
	api := newFakeAPI(t)
	api.startBody = `{"step": "finished"}`

	p, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)

	_, err = p.Download(context.Background())
	assert.ErrorIs(t, err, ErrNoResultURL)
	assert.Equal(t, 0, api.count(http.MethodGet))
}

func TestDownload_ErrorStatus(t *testing.T) {
	api := newFakeAPI(t)
	api.resultStatus = http.StatusNotFound

	p, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)

	_, err = p.Download(context.Background())
	require.ErrorIs(t, err, ErrWrongResource)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
}

// --- Client plumbing ---

func TestClient_Defaults(t *testing.T) {
	c := New(nil, types.ClientConfig{APIKey: "k"})
	assert.Equal(t, DefaultProcessURL, c.processURL)
	assert.Equal(t, DefaultMaxFiles, c.MaxFiles())
	assert.NotNil(t, c.http)
	assert.Nil(t, c.Process())
}

func TestClient_SendsUserAgent(t *testing.T) {
	api := newFakeAPI(t)

	_, err := api.client().Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)
	for _, r := range api.recorded() {
		assert.Equal(t, "cloudconvert-test/0.1", r.Header.Get("User-Agent"), r.Path)
	}
}

func TestClient_ProcessReturnsLastCreated(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client()

	p, err := c.Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)
	assert.Same(t, p, c.Process())
}

func TestClient_ProcessKeptWhenStartFails(t *testing.T) {
	api := newFakeAPI(t)
	api.startStatus = http.StatusInternalServerError
	c := api.client()

	p, err := c.Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.ErrorIs(t, err, ErrWrongRequestData)
	assert.Nil(t, p)
	require.NotNil(t, c.Process())
	assert.Equal(t, "http://"+api.host()+"/process/abc", c.Process().URL())
	assert.Empty(t, c.Process().Response)
}

func TestClient_ProcessClearedByLaterFailure(t *testing.T) {
	api := newFakeAPI(t)
	c := api.client()

	_, err := c.Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)
	require.NotNil(t, c.Process())

	_, err = c.Merge(context.Background(), urlSources(api, DefaultMaxFiles+1))
	require.ErrorIs(t, err, ErrFilesCount)
	assert.Nil(t, c.Process())
}

type recordingReporter struct {
	mu        sync.Mutex
	calls     []string
	statuses  []int
	processes []ProcessType
	errs      []error
}

func (r *recordingReporter) APICall(call string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	r.statuses = append(r.statuses, status)
}

func (r *recordingReporter) ProcessFinished(kind ProcessType, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processes = append(r.processes, kind)
	r.errs = append(r.errs, err)
}

func TestClient_ReportsCalls(t *testing.T) {
	api := newFakeAPI(t)
	rep := &recordingReporter{}
	c := api.client(WithReporter(rep))

	p, err := c.Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)
	_, err = p.Download(context.Background())
	require.NoError(t, err)

	_, err = c.Merge(context.Background(), urlSources(api, DefaultMaxFiles+1))
	require.Error(t, err)

	assert.Equal(t, []string{"create_process", "convert", "download"}, rep.calls)
	assert.Equal(t, []int{200, 200, 200}, rep.statuses)
	assert.Equal(t, []ProcessType{ProcessConvert, ProcessMerge}, rep.processes)
	assert.NoError(t, rep.errs[0])
	assert.ErrorIs(t, rep.errs[1], ErrFilesCount)
}

func TestClient_LogsWithLogrus(t *testing.T) {
	api := newFakeAPI(t)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, err := api.client(WithLogger(logger)).Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	last := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, last.Level)
	assert.Equal(t, "Client.Convert", last.Data["function"])
	for _, e := range entries {
		assert.NotContains(t, e.Message, "secret-key")
		for _, v := range e.Data {
			assert.NotContains(t, toString(v), "secret-key")
		}
	}
}

type stubBuilder struct{ called bool }

func (b *stubBuilder) BuildRequest(ctx context.Context, p *Process) (*http.Request, error) {
	b.called = true
	return http.NewRequestWithContext(ctx, http.MethodPost, p.URL(), nil)
}

func TestClient_WithRequestBuilder(t *testing.T) {
	api := newFakeAPI(t)
	b := &stubBuilder{}

	_, err := api.client(WithRequestBuilder(ProcessConvert, b)).Convert(context.Background(), NewReaderSource(stringsReader("x"), "jpg"), "pdf")
	require.NoError(t, err)
	assert.True(t, b.called)
}

func TestErrors_WrapBase(t *testing.T) {
	for _, err := range []error{
		ErrMissingFile,
		ErrWrongRequestData,
		ErrWrongResource,
		ErrFilesCount,
		ErrUnsupportedSource,
		ErrNoResultURL,
		wrongRequest("op", 500, nil),
		wrongResource("op", 404, nil),
	} {
		assert.ErrorIs(t, err, ErrCloudConvert, err.Error())
	}
}

func TestRequestError_Message(t *testing.T) {
	err := wrongRequest("create process", 401, []byte("bad key"))
	assert.Equal(t, "cloudconvert: wrong request data: create process returned HTTP 401: bad key", err.Error())

	long := make([]byte, maxErrorBody*2)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, wrongResource("download", 500, long).Error(), len("cloudconvert: wrong resource: download returned HTTP 500: ")+maxErrorBody)
}
