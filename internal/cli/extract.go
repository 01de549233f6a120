package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stegaplots/pkg/metadata"
)

// extractOpts holds the command-line flags for the extract command.
type extractOpts struct {
	paramsOnly bool // skip decoding the code block
	source     bool // print code file contents, not just names
	asJSON     bool // print {"params": ..., "code": ...}
}

func (c *CLI) extractCommand() *cobra.Command {
	var opts extractOpts

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Print the params and code embedded in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.paramsOnly, "params-only", false, "read only the params block")
	cmd.Flags().BoolVar(&opts.source, "source", false, "print the embedded code, not just file names")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the metadata as JSON")

	return cmd
}

func runExtract(ctx context.Context, w io.Writer, path string, opts *extractOpts) error {
	logger := loggerFromContext(ctx)

	m, err := metadata.Retrieve(path, opts.paramsOnly)
	if err != nil {
		return err
	}
	logger.Debug("extracted", "path", path, "params", len(m.Params), "code", len(m.Code))

	if opts.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}
	fmt.Fprintln(w, formatMetadata(m, opts.source))
	return nil
}
