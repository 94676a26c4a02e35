// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cloudconvert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pdiddy/cloudconvert/internal/httputil"
)

// Mode tells the API how it obtains a file.
type Mode string

const (
	// ModeUpload sends the file bytes in the request.
	ModeUpload Mode = "upload"
	// ModeDownload has the API fetch the file from a URL.
	ModeDownload Mode = "download"
)

// InputSource is where the bytes of one input file come from. FileSource and
// URLSource are the two implementations.
type InputSource interface {
	// Read returns the full file content.
	Read(ctx context.Context) ([]byte, error)

	// Filename is the name sent with the file part of an upload.
	Filename() string

	// Mode reports whether the file is uploaded or downloaded by the API.
	Mode() Mode

	// Format is the current format of the file (e.g. "jpg").
	Format() string
}

// FileSource reads a file from local disk or from an open reader.
type FileSource struct {
	path   string
	r      io.Reader
	format string
}

// NewFileSource returns a source backed by the file at path.
func NewFileSource(path, format string) *FileSource {
	return &FileSource{path: path, format: format}
}

// NewReaderSource returns a source backed by an already open reader. The
// reader is consumed by the first Read.
func NewReaderSource(r io.Reader, format string) *FileSource {
	return &FileSource{r: r, format: format}
}

// Read opens, reads, and closes the file, or drains the reader.
func (s *FileSource) Read(_ context.Context) ([]byte, error) {
	if s.r != nil {
		data, err := io.ReadAll(s.r)
		if err != nil {
			return nil, fmt.Errorf("reading source: %w", err)
		}
		return data, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	return data, nil
}

// Filename returns "<basename>.<format>", or "file.<format>" for a reader.
// The basename keeps its own extension, so "photo.jpg" becomes "photo.jpg.jpg".
func (s *FileSource) Filename() string {
	name := "file"
	if s.r == nil {
		name = filepath.Base(s.path)
	}
	return name + "." + s.format
}

func (s *FileSource) Mode() Mode     { return ModeUpload }
func (s *FileSource) Format() string { return s.format }

// Path returns the local path, or "" for a reader source.
func (s *FileSource) Path() string { return s.path }

// URLSource is a file the API (or Read) fetches from a remote URL.
type URLSource struct {
	client *http.Client
	url    string
	format string
}

// NewURLSource returns a source for the file at url. A nil client means
// http.DefaultClient.
func NewURLSource(client *http.Client, url, format string) *URLSource {
	return &URLSource{client: client, url: url, format: format}
}

// Read fetches the URL and returns its body. Any non-2xx status is an
// ErrWrongResource.
func (s *URLSource) Read(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := httputil.Do(s.client, req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %w", ErrWrongResource, s.url, err)
	}
	if !resp.IsSuccess() {
		return nil, wrongResource("read "+s.url, resp.StatusCode, resp.Body)
	}
	return resp.Body, nil
}

// Filename returns ".<format>": a URL source has no local basename.
func (s *URLSource) Filename() string { return "." + s.format }

func (s *URLSource) Mode() Mode     { return ModeDownload }
func (s *URLSource) Format() string { return s.format }

// URL returns the remote location of the file.
func (s *URLSource) URL() string { return s.url }
