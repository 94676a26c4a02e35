// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cloudconvert

import "strings"

// Response is the decoded JSON body returned when a process is started.
type Response map[string]any

// URL returns the top-level "url" field, or "" when absent. The API reports
// it protocol-relative ("//host/path").
func (r Response) URL() string {
	return stringField(r, "url")
}

// Step returns the process step (e.g. "finished").
func (r Response) Step() string {
	return stringField(r, "step")
}

// Message returns the human-readable status message, if any.
func (r Response) Message() string {
	return stringField(r, "message")
}

// Output returns the "output" object, or nil.
func (r Response) Output() map[string]any {
	out, _ := r["output"].(map[string]any)
	return out
}

// OutputExt returns output.ext.
func (r Response) OutputExt() string {
	return stringField(r.Output(), "ext")
}

// OutputURL returns output.url.
func (r Response) OutputURL() string {
	return stringField(r.Output(), "url")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// absoluteURL turns a protocol-relative URL into an http one and leaves
// anything else untouched.
func absoluteURL(u string) string {
	if strings.HasPrefix(u, "//") {
		return "http:" + u
	}
	return u
}
