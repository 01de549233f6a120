package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stegaplots/pkg/metadata"
	"github.com/matzehuels/stegaplots/pkg/payload"
)

// scanOpts holds the command-line flags for the scan command.
type scanOpts struct {
	noCache bool
	full    bool
	asJSON  bool
}

func (c *CLI) scanCommand() *cobra.Command {
	var opts scanOpts

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "List every image with embedded metadata under a directory",
		Long: `Walk a directory and read the params of every PNG, BMP and TIFF file
that carries embedded metadata. Results are cached by file content, so
rescanning an unchanged tree is fast.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the scan cache")
	cmd.Flags().BoolVar(&opts.full, "full", false, "also decode the code block")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the report as JSON")

	return cmd
}

func (c *CLI) runScan(ctx context.Context, w io.Writer, root string, opts *scanOpts) error {
	logger := loggerFromContext(ctx)

	store := c.newCache(opts.noCache)
	defer store.Close()

	walkOpts := metadata.ScanOptions{
		Cache: store,
		TTL:   c.Config.Cache.TTL.Duration,
		Full:  opts.full,
	}
	if !opts.asJSON {
		walkOpts.OnResult = func(res metadata.ScanResult) {
			printScanResult(w, root, res)
		}
	}

	prog := newProgress(logger)
	var spinner *Spinner
	if opts.asJSON {
		spinner = newSpinnerWithContext(ctx, w, "Scanning "+root+"...")
		spinner.Start()
	}
	report, err := metadata.Scan(ctx, root, walkOpts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Scanned %d images", report.Checked))

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	printSuccess(w, "%s of %s images carry metadata",
		StyleNumber.Render(fmt.Sprint(len(report.Results))),
		StyleNumber.Render(fmt.Sprint(report.Checked)))
	printDetail(w, "%d without a header, %d cached", report.Skipped, report.CacheHits)
	return nil
}

func printScanResult(w io.Writer, root string, res metadata.ScanResult) {
	rel, err := filepath.Rel(root, res.Path)
	if err != nil {
		rel = res.Path
	}
	if res.Err != "" {
		printWarning(w, "%s: %s", rel, res.Err)
		return
	}
	params, err := payload.DictToStr(res.Metadata.Params)
	if err != nil {
		params = fmt.Sprintf("%v", res.Metadata.Params)
	}
	fmt.Fprintf(w, "  %s %s %s\n", StyleValue.Render(rel), styleParams.Render(params), cacheStatus(res.Cached))
	for _, name := range res.Metadata.CodeNames() {
		printDetail(w, "  %s", name)
	}
}
