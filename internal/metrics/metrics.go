// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records CloudConvert API traffic in Prometheus collectors.
package metrics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/pdiddy/cloudconvert/pkg/cloudconvert"
)

const namespace = "cloudconvert"

// Reporter implements cloudconvert.Reporter.
type Reporter struct {
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	processes *prometheus.CounterVec
}

// NewReporter creates the collectors and registers them with reg.
func NewReporter(reg prometheus.Registerer) (*Reporter, error) {
	r := &Reporter{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Number of HTTP exchanges with the API, by call and status code.",
			},
			[]string{"call", "code"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "HTTP exchange duration distributions.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"call"},
		),
		processes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "processes_total",
				Help:      "Number of conversions and merges, by outcome.",
			},
			[]string{"kind", "outcome"},
		),
	}

	for _, c := range []prometheus.Collector{r.requests, r.durations, r.processes} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return r, nil
}

// APICall counts one exchange. A zero status code is labelled "error".
func (r *Reporter) APICall(call string, statusCode int, elapsed time.Duration) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	r.requests.WithLabelValues(call, code).Inc()
	r.durations.WithLabelValues(call).Observe(elapsed.Seconds())
}

// ProcessFinished counts one Convert or Merge by outcome.
func (r *Reporter) ProcessFinished(kind cloudconvert.ProcessType, err error) {
	r.processes.WithLabelValues(string(kind), Outcome(err)).Inc()
}

// Outcome maps an error returned by the client to a short label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, cloudconvert.ErrMissingFile):
		return "missing_file"
	case errors.Is(err, cloudconvert.ErrFilesCount):
		return "files_count"
	case errors.Is(err, cloudconvert.ErrUnsupportedSource):
		return "unsupported_source"
	case errors.Is(err, cloudconvert.ErrWrongResource):
		return "wrong_resource"
	case errors.Is(err, cloudconvert.ErrWrongRequestData):
		return "wrong_request_data"
	default:
		return "other"
	}
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
