// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cloudconvert/internal/storage"
	"github.com/pdiddy/cloudconvert/pkg/cloudconvert"
	"github.com/pdiddy/cloudconvert/pkg/types"
)

const mergeFormat = "pdf"

var mergeCmd = &cobra.Command{
	Use:   "merge <url>...",
	Short: "Merge remote PDF files into one PDF",
	Long: `Merge has the API download each PDF URL, merges them in argument order,
and downloads the merged PDF to --output. At most 10 files (or --max-files)
can be merged at once; local files are not supported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringP("output", "o", "merged.pdf", "local path or s3://bucket/key for the merged PDF")
	mergeCmd.Flags().Bool("json", false, "print the process response as JSON")

	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	asJSON, _ := cmd.Flags().GetBool("json")

	target, err := storage.ParseTarget(output)
	if err != nil {
		return err
	}

	sources := make([]cloudconvert.InputSource, 0, len(args))
	for _, arg := range args {
		src, err := cli.inputSource(arg, mergeFormat)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	job := &types.Job{
		Kind:         string(cloudconvert.ProcessMerge),
		InputFormat:  mergeFormat,
		OutputFormat: mergeFormat,
		Sources:      args,
	}

	ctx := cmd.Context()
	client := cli.newClient()
	p, err := client.Merge(ctx, sources)
	if err != nil {
		p = client.Process()
	}
	if err := cli.complete(ctx, job, p, target, err); err != nil {
		return err
	}
	if asJSON {
		return writeResponse(cmd.OutOrStdout(), p.Response)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "merged: %s -> %s\n", strings.Join(args, ", "), job.Output)
	return nil
}
