// Package payload turns plot metadata into the two text blocks stegaplots
// hides in an image, and back.
//
// # Blocks
//
// A payload is a pair of mappings:
//
//   - [Params]: parameter names to JSON values (numbers, strings, booleans,
//     nested objects and arrays)
//   - [Code]: code identifiers, usually file paths, to their source text
//
// Params are embedded as raw canonical JSON. Code is embedded as canonical
// JSON that has been deflated and base64 encoded, since source text is
// larger and compresses well.
//
// # Canonical JSON
//
// [DictToStr] sorts object keys, uses compact separators and escapes every
// non-ASCII character as \uXXXX. The result is deterministic and uses only
// single-byte characters, which is what the bit layer accepts:
//
//	s, _ := payload.DictToStr(payload.Params{"seed": 4, "n": 500})
//	// s == `{"n":500,"seed":4}`
//
// [StrToDict] is the inverse. Numbers decode as [encoding/json.Number] so
// integers of any size survive a round trip unchanged.
//
// # Compression
//
// [Compress] deflates the UTF-8 bytes with a zlib wrapper and base64 encodes
// the result; [Decompress] reverses both steps.
package payload
