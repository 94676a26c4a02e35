// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cloudconvert

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/cloudconvert/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake\x00\xff"

// capturedRequest is a copy of a request seen by the fake API.
type capturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte

	// Form and Files are filled for multipart requests.
	Form  map[string]string
	Files []capturedFile
}

type capturedFile struct {
	Field    string
	Filename string
	Content  string
}

// fakeAPI imitates the process endpoint, a process, and a result file.
// Status and body overrides must be set before the first request.
type fakeAPI struct {
	srv *httptest.Server

	processStatus int
	processBody   string // %s is replaced with the server host
	startStatus   int
	startBody     string // %s is replaced with the server host
	resultStatus  int

	mu       sync.Mutex
	requests []capturedRequest
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{
		processStatus: http.StatusOK,
		processBody:   `{"url": "//%s/process/abc"}`,
		startStatus:   http.StatusOK,
		startBody:     `{"step": "finished", "url": "//%s/result/file.pdf", "output": {"ext": "pdf", "url": "//%s/result/file.pdf"}}`,
		resultStatus:  http.StatusOK,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) handle(w http.ResponseWriter, r *http.Request) {
	f.capture(r)

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/process":
		w.WriteHeader(f.processStatus)
		fmt.Fprint(w, hostify(f.processBody, r.Host))
	case r.Method == http.MethodPost && r.URL.Path == "/process/abc":
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.startStatus)
		fmt.Fprint(w, hostify(f.startBody, r.Host))
	case r.Method == http.MethodGet && r.URL.Path == "/result/file.pdf":
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(f.resultStatus)
		fmt.Fprint(w, fakePDFContent)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeAPI) capture(r *http.Request) {
	c := capturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
	}
	if err := r.ParseMultipartForm(1 << 20); err == nil {
		c.Form = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			c.Form[k] = v[0]
		}
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				file, err := fh.Open()
				if err != nil {
					continue
				}
				data, _ := io.ReadAll(file)
				file.Close()
				c.Files = append(c.Files, capturedFile{Field: field, Filename: fh.Filename, Content: string(data)})
			}
		}
	} else {
		c.Body, _ = io.ReadAll(r.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, c)
	f.mu.Unlock()
}

// hostify substitutes every %s in body with host.
func hostify(body, host string) string {
	n := 0
	for i := 0; i+1 < len(body); i++ {
		if body[i] == '%' && body[i+1] == 's' {
			n++
		}
	}
	args := make([]any, n)
	for i := range args {
		args[i] = host
	}
	return fmt.Sprintf(body, args...)
}

func (f *fakeAPI) host() string {
	return f.srv.Listener.Addr().String()
}

func (f *fakeAPI) recorded() []capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]capturedRequest(nil), f.requests...)
}

func (f *fakeAPI) count(method string) int {
	n := 0
	for _, r := range f.recorded() {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeAPI) client(opts ...Option) *Client {
	cfg := types.ClientConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "cloudconvert-test/0.1",
		},
		APIKey:     "secret-key",
		ProcessURL: f.srv.URL + "/process",
	}
	return New(f.srv.Client(), cfg, opts...)
}

func decodeJSON(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decoding %q: %v", data, err)
	}
	return m
}
