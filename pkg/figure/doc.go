// Package figure renders Graphviz figures into in-memory rasters that can
// carry embedded metadata.
//
// # Usage
//
// Render DOT source to an image, then hand it to the stego package:
//
//	img, err := figure.RenderDOT(ctx, dot, figure.Options{})
//	out, err := stego.Insert(img, params, payload.Code{"figure.dot": string(dot)})
//
// [ParamsDOT] builds a small table figure from a parameter set, which is
// handy when there is no plot yet but the run configuration should travel
// with an image.
//
// # Dependencies
//
// Rendering uses [github.com/goccy/go-graphviz], which runs Graphviz
// in-process, so no system installation is required.
package figure
