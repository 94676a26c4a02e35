// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus indicates how a conversion or merge ended.
type JobStatus string

const (
	JobFinished JobStatus = "finished"
	JobFailed   JobStatus = "failed"
)

// Job records one finished conversion or merge run.
type Job struct {
	// ID is a UUID assigned when the job is recorded.
	ID string `json:"id" yaml:"id"`

	// Kind is the process type ("convert" or "merge").
	Kind string `json:"kind" yaml:"kind"`

	// InputFormat and OutputFormat are the formats sent at process creation.
	InputFormat  string `json:"input_format" yaml:"input_format"`
	OutputFormat string `json:"output_format" yaml:"output_format"`

	// Sources lists the local paths or URLs the job read from, in order.
	Sources []string `json:"sources" yaml:"sources"`

	// ProcessURL is the remote process the job ran on.
	ProcessURL string `json:"process_url,omitempty" yaml:"process_url,omitempty"`

	// ResultURL is the download URL reported by the API.
	ResultURL string `json:"result_url,omitempty" yaml:"result_url,omitempty"`

	// Output is where the result was written (local path or s3:// target).
	Output string `json:"output,omitempty" yaml:"output,omitempty"`

	Status JobStatus `json:"status" yaml:"status"`

	// Error holds the failure message when Status is JobFailed.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}
