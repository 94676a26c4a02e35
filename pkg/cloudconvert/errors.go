// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cloudconvert

import (
	"errors"
	"fmt"
)

// ErrCloudConvert is the base of every error the client reports. Each
// sentinel below wraps it, so errors.Is(err, ErrCloudConvert) identifies a
// client failure regardless of its kind.
var ErrCloudConvert = errors.New("cloudconvert")

var (
	// ErrMissingFile is returned when a process is started with no source attached.
	ErrMissingFile = fmt.Errorf("%w: missing file", ErrCloudConvert)

	// ErrWrongRequestData is returned when the API answers with an unexpected status
	// or an unusable body.
	ErrWrongRequestData = fmt.Errorf("%w: wrong request data", ErrCloudConvert)

	// ErrWrongResource is returned when a remote source or result cannot be fetched.
	ErrWrongResource = fmt.Errorf("%w: wrong resource", ErrCloudConvert)

	// ErrFilesCount is returned when a merge is given more sources than allowed.
	ErrFilesCount = fmt.Errorf("%w: too many files", ErrCloudConvert)

	// ErrUnsupportedSource is returned when a merge is given a source that has no URL.
	ErrUnsupportedSource = fmt.Errorf("%w: unsupported source", ErrCloudConvert)

	// ErrNoResultURL is returned by Download when the process response carries no url.
	ErrNoResultURL = fmt.Errorf("%w: no result url", ErrCloudConvert)
)

// maxErrorBody caps how much of a response body is echoed in an error message.
const maxErrorBody = 256

// RequestError reports an HTTP exchange that ended with an unexpected status.
// It unwraps to ErrWrongRequestData for API calls and to ErrWrongResource for
// source reads and result downloads.
type RequestError struct {
	// Op names the call that failed (e.g. "create process").
	Op string

	StatusCode int

	// Body is the raw response body.
	Body []byte

	kind error
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%v: %s returned HTTP %d", e.kind, e.Op, e.StatusCode)
	if len(e.Body) == 0 {
		return msg
	}
	body := e.Body
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Sprintf("%s: %s", msg, body)
}

func (e *RequestError) Unwrap() error { return e.kind }

func wrongRequest(op string, status int, body []byte) *RequestError {
	return &RequestError{Op: op, StatusCode: status, Body: body, kind: ErrWrongRequestData}
}

func wrongResource(op string, status int, body []byte) *RequestError {
	return &RequestError{Op: op, StatusCode: status, Body: body, kind: ErrWrongResource}
}
