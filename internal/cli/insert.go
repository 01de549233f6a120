package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stegaplots/pkg/metadata"
	"github.com/matzehuels/stegaplots/pkg/payload"
	"github.com/matzehuels/stegaplots/pkg/raster"
)

// paramFlags collects params from a file and repeated key=value flags.
// Assignments override keys loaded from the file.
type paramFlags struct {
	file        string
	assignments []string
}

func (p *paramFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.file, "params", "", "params file (.json, .toml, .yaml)")
	cmd.Flags().StringArrayVar(&p.assignments, "param", nil, "set a param as key=value (repeatable, value parsed as JSON when possible)")
}

func (p *paramFlags) load() (payload.Params, error) {
	params := payload.Params{}
	if p.file != "" {
		loaded, err := metadata.LoadParams(p.file)
		if err != nil {
			return nil, err
		}
		params = loaded
	}
	return metadata.ParseAssignments(params, p.assignments)
}

// insertOpts holds the command-line flags for the insert command.
type insertOpts struct {
	output    string
	params    paramFlags
	codePaths []string
}

func (c *CLI) insertCommand() *cobra.Command {
	var opts insertOpts

	cmd := &cobra.Command{
		Use:   "insert <image>",
		Short: "Embed params and code files into an image",
		Long: `Embed params and code files into a lossless image.

The output keeps the input's dimensions and channel layout. Every sample
changes by at most one, so the figure looks the same.

Examples:
  stegaplots insert fig.png -o fig.stego.png --param seed=4 --code plot.py
  stegaplots insert fig.png --params run.toml --code plot.py --code util.py`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output image (default <input>.stego.png)")
	opts.params.register(cmd)
	cmd.Flags().StringArrayVar(&opts.codePaths, "code", nil, "code file to embed (repeatable)")

	return cmd
}

func runInsert(ctx context.Context, w io.Writer, input string, opts *insertOpts) error {
	logger := loggerFromContext(ctx)

	params, err := opts.params.load()
	if err != nil {
		return err
	}
	code, err := metadata.ReadCode(opts.codePaths)
	if err != nil {
		return err
	}
	img, err := raster.Open(input)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = defaultOutput(input)
	}

	prog := newProgress(logger)
	res, err := metadata.SaveCode(ctx, img, params, code, output)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Embedded %d bits", res.Bits))

	printEmbedResult(w, res)
	printNextStep(w, "Read it back", appName+" extract "+res.Path)
	return nil
}

func printEmbedResult(w io.Writer, res *metadata.Written) {
	printSuccess(w, "Embedded %s bits", StyleNumber.Render(fmt.Sprint(res.Bits)))
	printFile(w, res.Path)
	printKeyValue(w, "shape", formatShape(res.Shape))
	printKeyValue(w, "used", fmt.Sprintf("%d / %d samples (%.1f%%)", res.Bits, res.Capacity, 100*float64(res.Bits)/float64(res.Capacity)))
	printKeyValue(w, "psnr", formatPSNR(res.PSNR))
}

// defaultOutput derives "<dir>/<name>.stego.png" from an input path.
func defaultOutput(input string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + ".stego.png"
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, n := range shape {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, "×")
}

func formatPSNR(v float64) string {
	if math.IsInf(v, 1) {
		return "inf (identical)"
	}
	return fmt.Sprintf("%.2f dB", v)
}
