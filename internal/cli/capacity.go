package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stegaplots/pkg/metadata"
	"github.com/matzehuels/stegaplots/pkg/raster"
	"github.com/matzehuels/stegaplots/pkg/stego"
)

type capacityOpts struct {
	params    paramFlags
	codePaths []string
}

// capacityCommand reports how much an image can hold and, when params or
// code are given, whether they would fit.
func (c *CLI) capacityCommand() *cobra.Command {
	var opts capacityOpts

	cmd := &cobra.Command{
		Use:   "capacity <image>",
		Short: "Report how many bytes an image can hold",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapacity(cmd.Context(), cmd.OutOrStdout(), args[0], &opts)
		},
	}

	opts.params.register(cmd)
	cmd.Flags().StringArrayVar(&opts.codePaths, "code", nil, "code file to check (repeatable)")

	return cmd
}

func runCapacity(ctx context.Context, w io.Writer, path string, opts *capacityOpts) error {
	img, err := raster.Open(path)
	if err != nil {
		return err
	}
	carrier := raster.FromImage(img)
	capacity := stego.CapacityOf(carrier)

	printKeyValue(w, "shape", formatShape(carrier.Shape()))
	printKeyValue(w, "samples", fmt.Sprint(capacity.Samples))
	printKeyValue(w, "header", fmt.Sprintf("%d bits", capacity.HeaderBits))
	printKeyValue(w, "payload", fmt.Sprintf("%d bytes", capacity.PayloadBytes()))

	if opts.params.file == "" && len(opts.params.assignments) == 0 && len(opts.codePaths) == 0 {
		return nil
	}

	params, err := opts.params.load()
	if err != nil {
		return err
	}
	code, err := metadata.ReadCode(opts.codePaths)
	if err != nil {
		return err
	}
	stream, err := stego.Encode(params, code)
	if err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("encoded payload", "bits", stream.Len(), "params_bits", stream.Header.ParamsBits, "code_bits", stream.Header.CodeBits)

	if stream.Fits(carrier) {
		printSuccess(w, "Payload fits: %d of %d bits", stream.Len(), capacity.Samples)
		return nil
	}
	printWarning(w, "Payload does not fit: needs %d bits, image has %d", stream.Len(), capacity.Samples)
	return nil
}
