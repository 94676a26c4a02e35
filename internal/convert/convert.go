// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert runs conversions of one or more inputs in sequence,
// printing per-file status and a batch summary.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pdiddy/cloudconvert/internal/storage"
)

// Status is the outcome of converting one input.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Converter turns a single input into a stored result.
type Converter interface {
	// Target returns where the result for input is stored.
	Target(input string) (storage.Target, error)

	// Convert converts input and stores the result at target.
	Convert(ctx context.Context, input string, target storage.Target) error
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int

	// Errs holds one error per failed input, in input order.
	Errs []error
}

// Total returns the total number of inputs processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any input failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertOne converts input with c and prints its status to w. With
// skipExisting, an input whose local target already exists is skipped.
func ConvertOne(ctx context.Context, c Converter, input string, skipExisting bool, w io.Writer) (Status, error) {
	target, err := c.Target(input)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", input, err)
		return StatusFailed, err
	}

	if skipExisting && !target.IsRemote() {
		if _, err := os.Stat(target.Path); err == nil {
			fmt.Fprintf(w, "skipped: %s (%s already exists)\n", input, target)
			return StatusSkipped, nil
		}
	}

	if err := c.Convert(ctx, input, target); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", input, err)
		return StatusFailed, err
	}

	fmt.Fprintf(w, "converted: %s -> %s\n", input, target)
	return StatusConverted, nil
}

// ConvertBatch converts every input in order and continues after individual
// failures. A summary line is printed when there is more than one input.
func ConvertBatch(ctx context.Context, c Converter, inputs []string, skipExisting bool, w io.Writer) BatchResult {
	var result BatchResult
	for _, input := range inputs {
		status, err := ConvertOne(ctx, c, input, skipExisting, w)
		switch status {
		case StatusConverted:
			result.Converted++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
			result.Errs = append(result.Errs, err)
		}
	}
	if len(inputs) > 1 {
		fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
			result.Converted, result.Skipped, result.Failed, result.Total())
	}
	return result
}
