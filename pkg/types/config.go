// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds configuration and record types shared by the client,
// the CLI, and the supporting stores.
package types

import "time"

// HTTPConfig holds shared HTTP settings used by every component that talks
// to the network.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cloudconvert-go/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClientConfig holds the settings a cloudconvert.Client is constructed with.
type ClientConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is sent as a bearer token when a process is created.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// ProcessURL is the endpoint that hands out process URLs. Empty means
	// the public API endpoint.
	ProcessURL string `json:"process_url,omitempty" yaml:"process_url,omitempty"`

	// MaxFiles is the largest number of sources accepted by one merge
	// (default 10).
	MaxFiles int `json:"max_files,omitempty" yaml:"max_files,omitempty"`
}

// StorageConfig holds the S3-compatible object storage settings used when a
// result is written to an s3:// target.
type StorageConfig struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint"`
	AccessKey string `json:"access_key,omitempty" yaml:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`

	// CreateBucket makes the destination bucket when it does not exist.
	CreateBucket bool `json:"create_bucket" yaml:"create_bucket"`
}

// HistoryConfig holds settings for the local job history.
type HistoryConfig struct {
	// Path is the SQLite database file (e.g. "~/.cache/cloudconvert/history.db").
	Path string `json:"path" yaml:"path"`

	// Disabled turns off recording.
	Disabled bool `json:"disabled" yaml:"disabled"`
}

// Config groups every configuration section read by the CLI.
type Config struct {
	Client  ClientConfig  `json:"client" yaml:"client"`
	Storage StorageConfig `json:"storage" yaml:"storage"`
	History HistoryConfig `json:"history" yaml:"history"`
}
