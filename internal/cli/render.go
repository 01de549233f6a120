package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/figure"
	"github.com/matzehuels/stegaplots/pkg/metadata"
)

// paramsCardName is the code entry holding a generated params card.
const paramsCardName = "params.dot"

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	layout    string
	title     string
	params    paramFlags
	codePaths []string
}

// renderCommand renders a Graphviz figure and embeds its own DOT source,
// alongside params and any extra code files, into the result.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{layout: figure.DefaultLayout}

	cmd := &cobra.Command{
		Use:   "render [figure.dot]",
		Short: "Render a Graphviz figure with its source embedded",
		Long: `Render a Graphviz figure to a lossless image and embed the DOT source
itself, plus params and extra code files, into the pixels.

Without a DOT file, a card listing the params is rendered instead.

Examples:
  stegaplots render deps.dot -o deps.png --param commit=abc123
  stegaplots render -o run.png --params run.toml --title "run 7"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src string
			if len(args) == 1 {
				src = args[0]
			}
			return runRender(cmd.Context(), cmd.OutOrStdout(), src, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output image (default <figure>.png)")
	cmd.Flags().StringVar(&opts.layout, "layout", opts.layout, "graphviz layout engine: dot, neato, circo, fdp, twopi")
	cmd.Flags().StringVar(&opts.title, "title", "", "params card title (default output name)")
	opts.params.register(cmd)
	cmd.Flags().StringArrayVar(&opts.codePaths, "code", nil, "extra code file to embed (repeatable)")

	return cmd
}

func runRender(ctx context.Context, w io.Writer, src string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	params, err := opts.params.load()
	if err != nil {
		return err
	}
	code, err := metadata.ReadCode(opts.codePaths)
	if err != nil {
		return err
	}

	output := opts.output
	var dot []byte
	var name string
	if src != "" {
		if dot, err = os.ReadFile(src); err != nil {
			if os.IsNotExist(err) {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "read figure %s", src)
			}
			return err
		}
		name = src
		if output == "" {
			output = strings.TrimSuffix(src, filepath.Ext(src)) + ".png"
		}
	} else {
		if output == "" {
			return errors.New(errors.ErrCodeInvalidInput, "--output is required when no figure is given")
		}
		title := opts.title
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(output), filepath.Ext(output))
		}
		dot = []byte(figure.ParamsDOT(title, params))
		name = paramsCardName
	}
	if _, dup := code[name]; dup {
		return errors.New(errors.ErrCodeInvalidInput, "code file %s is already embedded as the figure source", name)
	}
	code[name] = string(dot)

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, w, "Rendering "+name+"...")
	spinner.Start()
	img, err := figure.RenderDOT(ctx, dot, figure.Options{Layout: opts.layout})
	spinner.Stop()
	if err != nil {
		return err
	}
	b := img.Bounds()
	logger.Debug("rendered figure", "source", name, "width", b.Dx(), "height", b.Dy())

	res, err := metadata.SaveCode(ctx, img, params, code, output)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered and embedded %d bits", res.Bits))

	printEmbedResult(w, res)
	printNextStep(w, "Read it back", appName+" extract --source "+res.Path)
	return nil
}
