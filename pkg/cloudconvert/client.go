// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cloudconvert is a client for the CloudConvert file-conversion API.
//
// A Client asks the API for a process URL, builds a Process for the requested
// workflow (conversion or PDF merge), starts it with the attached input
// sources, and hands the Process back so the caller can Download the result.
package cloudconvert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/cloudconvert/internal/httputil"
	"github.com/pdiddy/cloudconvert/pkg/types"
)

const (
	// DefaultProcessURL is the public endpoint that creates processes.
	DefaultProcessURL = "http://api.cloudconvert.com/process"

	// DefaultMaxFiles is the largest number of sources one merge accepts.
	DefaultMaxFiles = 10

	mergeFormat = "pdf"
)

// Reporter receives measurements of API traffic. internal/metrics provides
// a Prometheus implementation.
type Reporter interface {
	// APICall is invoked after every HTTP exchange. statusCode is 0 when the
	// request failed before a response arrived.
	APICall(call string, statusCode int, elapsed time.Duration)

	// ProcessFinished is invoked once per Convert or Merge with its outcome.
	ProcessFinished(kind ProcessType, err error)
}

type nopReporter struct{}

func (nopReporter) APICall(string, int, time.Duration) {}
func (nopReporter) ProcessFinished(ProcessType, error) {}

// Client talks to the CloudConvert API with a single API key.
type Client struct {
	http       *http.Client
	apiKey     string
	processURL string
	maxFiles   int
	userAgent  string
	builders   map[ProcessType]RequestBuilder
	log        logrus.FieldLogger
	reporter   Reporter

	process *Process
}

// Option customizes a Client.
type Option func(*Client)

// WithLogger sets the logger used for request tracing.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// WithReporter sets the receiver of API call measurements.
func WithReporter(r Reporter) Option {
	return func(c *Client) { c.reporter = r }
}

// WithRequestBuilder registers or replaces the builder for a process type.
func WithRequestBuilder(kind ProcessType, b RequestBuilder) Option {
	return func(c *Client) { c.builders[kind] = b }
}

// New creates a client. A nil httpClient gets one with cfg.Timeout. Empty
// ProcessURL and zero MaxFiles fall back to the defaults.
func New(httpClient *http.Client, cfg types.ClientConfig, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	processURL := cfg.ProcessURL
	if processURL == "" {
		processURL = DefaultProcessURL
	}
	maxFiles := cfg.MaxFiles
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		http:       httpClient,
		apiKey:     cfg.APIKey,
		processURL: processURL,
		maxFiles:   maxFiles,
		userAgent:  cfg.UserAgent,
		builders: map[ProcessType]RequestBuilder{
			ProcessConvert: ConversionBuilder{},
			ProcessMerge:   MergingBuilder{},
		},
		log:      discard,
		reporter: nopReporter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Process returns the process created by the most recent Convert or Merge,
// including one whose Start failed. It is nil when that call failed before
// the API assigned a process URL.
func (c *Client) Process() *Process { return c.process }

// MaxFiles returns the merge limit in effect.
func (c *Client) MaxFiles() int { return c.maxFiles }

// Convert converts source into outputFormat. It creates a process, attaches
// source, and starts it. The returned Process carries the API response.
func (c *Client) Convert(ctx context.Context, source InputSource, outputFormat string) (p *Process, err error) {
	defer func() { c.reporter.ProcessFinished(ProcessConvert, err) }()
	c.process = nil

	if source == nil {
		return nil, fmt.Errorf("converting: %w", ErrMissingFile)
	}

	p, err = c.createProcess(ctx, source.Format(), outputFormat, ProcessConvert)
	if err != nil {
		return nil, err
	}
	p.AddFile(source)
	if err := p.Start(ctx); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"function": "Client.Convert",
		"process":  p.URL(),
		"step":     p.Response.Step(),
	}).Info("Conversion finished.")
	return p, nil
}

// Merge merges PDF sources into a single PDF. More than MaxFiles sources fail
// with ErrFilesCount before any request is made; an empty list fails with
// ErrMissingFile once the process exists.
func (c *Client) Merge(ctx context.Context, sources []InputSource) (p *Process, err error) {
	defer func() { c.reporter.ProcessFinished(ProcessMerge, err) }()
	c.process = nil

	if len(sources) > c.maxFiles {
		return nil, fmt.Errorf("%w: %d sources, at most %d per merge", ErrFilesCount, len(sources), c.maxFiles)
	}

	p, err = c.createProcess(ctx, mergeFormat, mergeFormat, ProcessMerge)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		p.AddFile(src)
	}
	if err := p.Start(ctx); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"function": "Client.Merge",
		"process":  p.URL(),
		"files":    len(sources),
	}).Info("Merge finished.")
	return p, nil
}

type processRequest struct {
	InputFormat  string `json:"inputformat"`
	OutputFormat string `json:"outputformat"`
}

type processResponse struct {
	URL string `json:"url"`
}

// createProcess obtains a process URL and wraps it in a Process of kind.
func (c *Client) createProcess(ctx context.Context, inputFormat, outputFormat string, kind ProcessType) (*Process, error) {
	builder, ok := c.builders[kind]
	if !ok {
		return nil, fmt.Errorf("no request builder for process type %q", kind)
	}

	u, err := c.requestProcessURL(ctx, inputFormat, outputFormat)
	if err != nil {
		return nil, err
	}

	c.process = &Process{
		client:       c,
		builder:      builder,
		kind:         kind,
		url:          absoluteURL(u),
		outputFormat: outputFormat,
	}
	return c.process, nil
}

// requestProcessURL posts the format pair to the process endpoint and returns
// the URL the API assigns. Only HTTP 200 is accepted.
func (c *Client) requestProcessURL(ctx context.Context, inputFormat, outputFormat string) (string, error) {
	data, err := json.Marshal(processRequest{InputFormat: inputFormat, OutputFormat: outputFormat})
	if err != nil {
		return "", fmt.Errorf("marshaling process request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.processURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	// The endpoint expects this header even though the body is JSON.
	req.Header.Set("Content-Type", "multipart/form-data")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.do(req, "create_process")
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", wrongRequest("create process", resp.StatusCode, resp.Body)
	}

	var pr processResponse
	if err := json.Unmarshal(resp.Body, &pr); err != nil {
		return "", fmt.Errorf("%w: decoding process response: %w", ErrWrongRequestData, err)
	}
	if pr.URL == "" {
		return "", fmt.Errorf("%w: process response has no url", ErrWrongRequestData)
	}
	return pr.URL, nil
}

// do sends req once, logging and reporting the exchange under call.
func (c *Client) do(req *http.Request, call string) (*httputil.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	log := c.log.WithFields(logrus.Fields{
		"function": call,
		"method":   req.Method,
		"url":      req.URL.Redacted(),
	})

	start := time.Now()
	resp, err := httputil.Do(c.http, req)
	elapsed := time.Since(start)
	if err != nil {
		c.reporter.APICall(call, 0, elapsed)
		log.WithError(err).Debug("Request failed.")
		return nil, fmt.Errorf("%s request: %w", call, err)
	}

	c.reporter.APICall(call, resp.StatusCode, elapsed)
	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"elapsed": elapsed,
	}).Debug("Request finished.")
	return resp, nil
}
