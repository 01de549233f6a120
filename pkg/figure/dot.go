package figure

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/payload"
	"github.com/matzehuels/stegaplots/pkg/raster"
)

// DefaultLayout is the Graphviz engine used when Options.Layout is empty.
const DefaultLayout = "dot"

// Options configures figure rendering.
type Options struct {
	// Layout selects the Graphviz engine ("dot", "neato", "circo", ...).
	Layout string
}

// RenderDOT lays out and rasterizes a DOT graph. The returned image is
// decoded from Graphviz's PNG output, so it is one of the layouts the
// raster package handles natively.
func RenderDOT(ctx context.Context, dot []byte, opts Options) (image.Image, error) {
	if len(bytes.TrimSpace(dot)) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty DOT source")
	}
	layout := opts.Layout
	if layout == "" {
		layout = DefaultLayout
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes(dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse DOT")
	}
	defer g.Close()

	gv.SetLayout(graphviz.Layout(layout))

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	img, _, err := raster.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode rendered figure: %w", err)
	}
	return img, nil
}

// ParamsDOT returns DOT source for a single-node figure listing params in
// sorted key order under title.
func ParamsDOT(title string, params payload.Params) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=white;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontname=\"Helvetica\", fontsize=14, margin=\"0.3,0.2\"];\n")
	fmt.Fprintf(&buf, "  params [label=%q];\n", paramsLabel(title, params))
	buf.WriteString("}\n")
	return buf.String()
}

func paramsLabel(title string, params payload.Params) string {
	lines := []string{title}
	for _, k := range slices.Sorted(maps.Keys(params)) {
		lines = append(lines, fmt.Sprintf("%s: %v", k, params[k]))
	}
	return strings.Join(lines, "\n")
}
