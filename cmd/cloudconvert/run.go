// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"github.com/pdiddy/cloudconvert/internal/history"
	"github.com/pdiddy/cloudconvert/internal/storage"
	"github.com/pdiddy/cloudconvert/pkg/cloudconvert"
	"github.com/pdiddy/cloudconvert/pkg/types"
)

func (a *app) httpClient() *http.Client {
	return &http.Client{Timeout: a.cfg.Client.Timeout}
}

func (a *app) newClient() *cloudconvert.Client {
	if a.cfg.Client.APIKey == "" {
		a.log.Warn("No API key configured; process creation will be rejected.")
	}
	return cloudconvert.New(a.httpClient(), a.cfg.Client,
		cloudconvert.WithLogger(a.log),
		cloudconvert.WithReporter(a.reporter),
	)
}

// isURL reports whether s is an http or https URL.
func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// inputSource builds a URL or file source for arg. An empty format is taken
// from the extension of the path.
func (a *app) inputSource(arg, format string) (cloudconvert.InputSource, error) {
	name := arg
	if isURL(arg) {
		u, _ := url.Parse(arg)
		name = u.Path
	}
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	}
	if format == "" {
		return nil, fmt.Errorf("cannot infer the format of %q: use --from", arg)
	}

	if isURL(arg) {
		return cloudconvert.NewURLSource(a.httpClient(), arg, format), nil
	}
	return cloudconvert.NewFileSource(arg, format), nil
}

// defaultOutput names the result after the input: "dir/photo.jpg" converted
// to pdf becomes "photo.pdf" in the working directory.
func defaultOutput(input, format string) string {
	name := input
	if isURL(input) {
		u, _ := url.Parse(input)
		name = path.Base(u.Path)
	} else {
		name = filepath.Base(name)
	}
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" || base == "." || base == "/" {
		base = "output"
	}
	return base + "." + format
}

// complete downloads and stores the result of a successful process and
// records the job in the history. It returns runErr or the delivery error.
// p may be a process whose start failed, or nil when none was created.
func (a *app) complete(ctx context.Context, job *types.Job, p *cloudconvert.Process, target storage.Target, runErr error) error {
	if p != nil {
		job.ProcessURL = p.URL()
		job.ResultURL = p.Response.URL()
	}
	err := runErr
	if err == nil {
		err = a.deliver(ctx, p, target)
	}

	if err != nil {
		job.Status = types.JobFailed
		job.Error = err.Error()
		job.Output = ""
	} else {
		job.Status = types.JobFinished
		job.Output = target.String()
	}
	if recErr := a.record(ctx, job); recErr != nil {
		a.log.WithError(recErr).Warn("Could not record job history.")
	}
	return err
}

func writeResponse(w io.Writer, resp cloudconvert.Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func (a *app) deliver(ctx context.Context, p *cloudconvert.Process, target storage.Target) error {
	data, err := p.Download(ctx)
	if err != nil {
		return err
	}

	var objects storage.ObjectStore
	if target.IsRemote() {
		objects, err = storage.NewMinioStorage(a.cfg.Storage, a.log)
		if err != nil {
			return err
		}
	}
	return storage.Save(ctx, target, data, objects)
}

func (a *app) record(ctx context.Context, job *types.Job) error {
	if a.cfg.History.Disabled {
		return nil
	}
	store, err := history.Open(a.cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, job)
}
