// Package stego hides plot metadata in the least-significant bits of an
// image's samples and recovers it from the image alone.
//
// # Bitstream
//
// Every embedded image carries one bitstream, one bit per sample, in the
// sample order defined by [raster.Carrier]:
//
//	[0, 512)                       header, 64 characters
//	[512, 512+P)                   params block: canonical JSON
//	[512+P, 512+P+C)               code block: base64(deflate(canonical JSON))
//
// The header reads "stegaplots-<version>-<P>-<C>" padded with spaces, where
// P and C are the block lengths in bits. Because the header has a fixed
// size, a decoder needs nothing but the image to find both blocks.
//
// Characters become bits with [TextToBits]: eight bits per character, most
// significant first. Only code points 0..255 are allowed, which canonical
// JSON and base64 both satisfy.
//
// # Embedding
//
// [EncodeBit] sets a sample's parity by moving it at most one step, so the
// image is visually unchanged. [Embed] validates capacity before touching
// anything and writes into a copy, so a failed [Insert] has no effect on
// its input.
//
//	img, err := stego.Insert(src, payload.Params{"seed": 4}, payload.Code{"plot.py": source})
//	params, code, err := stego.Extract(img, false)
//
// # Integrity
//
// The magic string is the only check. A payload damaged after embedding, for
// example by a lossy re-save, surfaces as a FORMAT error when the header is
// hit, or as a PARSE error when the JSON or deflate data no longer decodes.
package stego
