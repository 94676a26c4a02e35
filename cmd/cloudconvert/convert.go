// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cloudconvert/internal/convert"
	"github.com/pdiddy/cloudconvert/internal/storage"
	"github.com/pdiddy/cloudconvert/pkg/cloudconvert"
	"github.com/pdiddy/cloudconvert/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file|url>...",
	Short: "Convert local files or URLs to another format",
	Long: `Convert uploads each local file (or has the API fetch each URL), waits for
the conversion to finish, and downloads the result. The input format is taken
from the file extension unless --from is given.

With a single input the result goes to --output. With several inputs each
result is named after its input and placed in --output-dir, which may be a
local directory or an s3://bucket/prefix. Inputs are converted one at a time
and a failure does not stop the rest of the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("to", "", "output format (e.g. pdf)")
	convertCmd.Flags().String("from", "", "input format (default: input file extension)")
	convertCmd.Flags().StringP("output", "o", "", "local path or s3://bucket/key for the result (default: <input name>.<to>)")
	convertCmd.Flags().String("output-dir", "", "directory or s3://bucket/prefix for results when converting several inputs")
	convertCmd.Flags().Bool("skip-existing", false, "skip inputs whose local result already exists")
	convertCmd.Flags().Bool("json", false, "print each process response as JSON")
	_ = convertCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(convertCmd)
}

// cliConverter converts one input per call through the API client.
type cliConverter struct {
	app       *app
	client    *cloudconvert.Client
	from, to  string
	output    string
	outputDir string
	jsonOut   io.Writer

	// claimed maps each target already handed out in this run to its input.
	claimed map[string]string
}

// Target names the result after the input. Two inputs of one batch may not
// share a target, so the later one fails instead of overwriting the earlier.
func (c *cliConverter) Target(input string) (storage.Target, error) {
	target, err := c.resolve(input)
	if err != nil {
		return storage.Target{}, err
	}
	key := target.String()
	if prev, ok := c.claimed[key]; ok && prev != input {
		return storage.Target{}, fmt.Errorf("target %s already used by %s", key, prev)
	}
	if c.claimed == nil {
		c.claimed = map[string]string{}
	}
	c.claimed[key] = input
	return target, nil
}

func (c *cliConverter) resolve(input string) (storage.Target, error) {
	if c.output != "" {
		return storage.ParseTarget(c.output)
	}
	name := defaultOutput(input, c.to)
	switch {
	case c.outputDir == "":
		return storage.ParseTarget(name)
	case strings.HasPrefix(c.outputDir, "s3://"):
		return storage.ParseTarget(strings.TrimSuffix(c.outputDir, "/") + "/" + name)
	default:
		return storage.ParseTarget(filepath.Join(c.outputDir, name))
	}
}

func (c *cliConverter) Convert(ctx context.Context, input string, target storage.Target) error {
	src, err := c.app.inputSource(input, c.from)
	if err != nil {
		return err
	}

	job := &types.Job{
		Kind:         string(cloudconvert.ProcessConvert),
		InputFormat:  src.Format(),
		OutputFormat: c.to,
		Sources:      []string{input},
	}
	p, err := c.client.Convert(ctx, src, c.to)
	if err != nil {
		p = c.client.Process()
	}
	if err := c.app.complete(ctx, job, p, target, err); err != nil {
		return err
	}
	if c.jsonOut != nil {
		return writeResponse(c.jsonOut, p.Response)
	}
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	from, _ := cmd.Flags().GetString("from")
	output, _ := cmd.Flags().GetString("output")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	skipExisting, _ := cmd.Flags().GetBool("skip-existing")
	asJSON, _ := cmd.Flags().GetBool("json")

	if to == "" {
		return fmt.Errorf("--to must name an output format")
	}
	if output != "" && len(args) > 1 {
		return fmt.Errorf("--output takes a single input; use --output-dir for %d inputs", len(args))
	}
	if output != "" && outputDir != "" {
		return fmt.Errorf("--output and --output-dir are mutually exclusive")
	}

	conv := &cliConverter{
		app:       cli,
		client:    cli.newClient(),
		from:      from,
		to:        to,
		output:    output,
		outputDir: outputDir,
	}

	// Status lines move to stderr so stdout stays valid JSON.
	status := cmd.OutOrStdout()
	if asJSON {
		conv.jsonOut = cmd.OutOrStdout()
		status = cmd.ErrOrStderr()
	}

	result := convert.ConvertBatch(cmd.Context(), conv, args, skipExisting, status)
	switch {
	case len(args) == 1 && result.HasFailures():
		return result.Errs[0]
	case result.HasFailures():
		return fmt.Errorf("%d of %d conversions failed", result.Failed, result.Total())
	}
	return nil
}
