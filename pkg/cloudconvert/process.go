// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cloudconvert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
)

// ProcessType tags the kind of workflow a process runs.
type ProcessType string

const (
	ProcessConvert ProcessType = "convert"
	ProcessMerge   ProcessType = "merge"
)

const mergedFilename = "merged.pdf"

// RequestBuilder serializes a process and its attached files into the HTTP
// request that starts it. ConversionBuilder and MergingBuilder are the two
// built-in workflows.
type RequestBuilder interface {
	BuildRequest(ctx context.Context, p *Process) (*http.Request, error)
}

// Process is one remote conversion or merge job. It is created by
// Client.Convert or Client.Merge and is not reused across calls.
type Process struct {
	client       *Client
	builder      RequestBuilder
	kind         ProcessType
	url          string
	outputFormat string
	files        []InputSource

	// Response holds the decoded JSON of the last successful Start.
	Response Response
}

func (p *Process) Kind() ProcessType    { return p.kind }
func (p *Process) URL() string          { return p.url }
func (p *Process) OutputFormat() string { return p.outputFormat }
func (p *Process) Files() []InputSource { return p.files }

// AddFile attaches a source to the process. Order is preserved.
func (p *Process) AddFile(src InputSource) {
	p.files = append(p.files, src)
}

// Start posts the attached files to the process URL and stores the decoded
// response. It fails with ErrMissingFile when nothing is attached and with
// ErrWrongRequestData unless the API answers 200 or 201.
func (p *Process) Start(ctx context.Context) error {
	if len(p.files) == 0 {
		return fmt.Errorf("starting %s process: %w", p.kind, ErrMissingFile)
	}

	req, err := p.builder.BuildRequest(ctx, p)
	if err != nil {
		return fmt.Errorf("building %s request: %w", p.kind, err)
	}

	resp, err := p.client.do(req, string(p.kind))
	if err != nil {
		return err
	}
	if !resp.StatusIn(http.StatusOK, http.StatusCreated) {
		return wrongRequest(string(p.kind)+" process", resp.StatusCode, resp.Body)
	}

	var r Response
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrWrongRequestData, p.kind, err)
	}
	p.Response = r
	return nil
}

// Download fetches the finished file named by the response url. A response
// without a url yields ErrNoResultURL; a non-2xx answer yields ErrWrongResource.
func (p *Process) Download(ctx context.Context) ([]byte, error) {
	u := p.Response.URL()
	if u == "" {
		return nil, fmt.Errorf("downloading %s result: %w", p.kind, ErrNoResultURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, absoluteURL(u), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.do(req, "download")
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, wrongResource("download", resp.StatusCode, resp.Body)
	}
	return resp.Body, nil
}

// ConversionBuilder uploads the attached sources as a multipart form with
// fields input, wait, and outputformat, and one "file" part per source.
type ConversionBuilder struct{}

func (ConversionBuilder) BuildRequest(ctx context.Context, p *Process) (*http.Request, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := [][2]string{
		{"input", string(p.files[0].Mode())},
		{"wait", strconv.FormatBool(true)},
		{"outputformat", p.outputFormat},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("writing field %s: %w", f[0], err)
		}
	}

	for _, src := range p.files {
		data, err := src.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", src.Filename(), err)
		}
		part, err := mw.CreateFormFile("file", src.Filename())
		if err != nil {
			return nil, fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, fmt.Errorf("writing file part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

// MergingBuilder asks the API to download every attached URL source and
// merge them into one PDF. Local files cannot be merged.
type MergingBuilder struct{}

type mergeRequest struct {
	Input        string      `json:"input"`
	Wait         bool        `json:"wait"`
	OutputFormat string      `json:"outputformat"`
	Filename     string      `json:"filename"`
	Files        []mergeFile `json:"file"`
}

type mergeFile struct {
	File     string `json:"file"`
	Filename string `json:"filename"`
}

func (MergingBuilder) BuildRequest(ctx context.Context, p *Process) (*http.Request, error) {
	files := make([]mergeFile, 0, len(p.files))
	for i, src := range p.files {
		switch s := src.(type) {
		case *URLSource:
			files = append(files, mergeFile{File: s.URL(), Filename: fmt.Sprintf("%d.pdf", i)})
		case *FileSource:
			return nil, fmt.Errorf("%w: merge cannot upload local file %s", ErrUnsupportedSource, s.Filename())
		default:
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedSource, src)
		}
	}

	data, err := json.Marshal(mergeRequest{
		Input:        string(ModeDownload),
		Wait:         true,
		OutputFormat: p.outputFormat,
		Filename:     mergedFilename,
		Files:        files,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling merge request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")
	return req, nil
}
