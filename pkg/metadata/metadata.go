// Package metadata is the file-level API on top of the stego codec: save a
// figure with its run parameters and source files, read them back, and scan
// directories of images.
package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/observability"
	"github.com/matzehuels/stegaplots/pkg/payload"
	"github.com/matzehuels/stegaplots/pkg/raster"
	"github.com/matzehuels/stegaplots/pkg/stego"
)

// Metadata is the decoded content of an embedded image.
type Metadata struct {
	Params payload.Params `json:"params"`
	Code   payload.Code   `json:"code"`
}

// CodeNames returns the code file names in sorted order.
func (m *Metadata) CodeNames() []string {
	names := make([]string, 0, len(m.Code))
	for name := range m.Code {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadCode reads each file into a Code map keyed by the path as given.
func ReadCode(paths []string) (payload.Code, error) {
	code := make(payload.Code, len(paths))
	for _, p := range paths {
		if err := errors.ValidateCodeName(p); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read code file %s", p)
		}
		if err != nil {
			return nil, err
		}
		code[p] = string(data)
	}
	return code, nil
}

// LoadParams reads a parameter set from a .json, .toml, .yaml or .yml file.
func LoadParams(path string) (payload.Params, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read params file %s", path)
	}
	if err != nil {
		return nil, err
	}

	params := payload.Params{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		m, err := payload.StrToDict(string(data))
		if err != nil {
			return nil, err
		}
		params = m
	case ".toml":
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&params); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", path)
		}
	default:
		return nil, errors.New(errors.ErrCodeUnsupported,
			"unsupported params file %q (want .json, .toml, .yaml or .yml)", ext)
	}
	return params, nil
}

// ParseAssignments turns key=value strings into params. A value that is
// valid JSON is stored as the decoded value, anything else as a string, so
// seed=4 yields a number and label=run4 a string.
func ParseAssignments(params payload.Params, assignments []string) (payload.Params, error) {
	if params == nil {
		params = payload.Params{}
	}
	for _, a := range assignments {
		key, raw, ok := strings.Cut(a, "=")
		if !ok {
			return nil, errors.New(errors.ErrCodeInvalidInput, "parameter %q is not key=value", a)
		}
		if err := errors.ValidateParamKey(key); err != nil {
			return nil, err
		}
		params[key] = parseValue(raw)
	}
	return params, nil
}

func parseValue(raw string) any {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

// Written describes an image written by [SaveCode].
type Written struct {
	Path     string  // path actually written
	Shape    []int   // carrier shape [h, w, c]
	Capacity int     // carrier samples
	Bits     int     // bits embedded
	PSNR     float64 // quality of the result against img
}

// Save embeds params and code files into img and writes the result to
// outPath. A path without an extension gets ".png". It returns the path
// written.
func Save(img image.Image, params payload.Params, codePaths []string, outPath string) (string, error) {
	if _, err := resolveOutput(outPath); err != nil {
		return "", err
	}
	code, err := ReadCode(codePaths)
	if err != nil {
		return "", err
	}
	w, err := SaveCode(context.Background(), img, params, code, outPath)
	if err != nil {
		return "", err
	}
	return w.Path, nil
}

// SaveCode is like [Save] for code already in memory, and reports what it
// wrote. The embed is reported to the codec observability hooks. Nothing is
// written when the payload does not fit.
func SaveCode(ctx context.Context, img image.Image, params payload.Params, code payload.Code, outPath string) (*Written, error) {
	outPath, err := resolveOutput(outPath)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = payload.Params{}
	}
	if code == nil {
		code = payload.Code{}
	}

	stream, err := stego.Encode(params, code)
	if err != nil {
		return nil, err
	}
	carrier := raster.FromImage(img)
	start := time.Now()
	out, err := stream.Embed(carrier)
	observability.Codec().OnEmbed(ctx, carrier.Shape(), stream.Len(), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if err := raster.Save(outPath, out.Image()); err != nil {
		return nil, err
	}

	return &Written{
		Path:     outPath,
		Shape:    carrier.Shape(),
		Capacity: carrier.Len(),
		Bits:     stream.Len(),
		PSNR:     raster.PSNR(carrier, out),
	}, nil
}

func resolveOutput(outPath string) (string, error) {
	if filepath.Ext(outPath) == "" {
		outPath += ".png"
	}
	if _, err := raster.FormatFromPath(outPath); err != nil {
		return "", err
	}
	return outPath, nil
}

// Decode parses extracted blocks into Metadata. An empty code string
// yields an empty code map.
func Decode(paramsStr, codeStr string) (*Metadata, error) {
	params, err := payload.StrToDict(paramsStr)
	if err != nil {
		return nil, err
	}
	code := payload.Code{}
	if codeStr != "" {
		if code, err = payload.StrToCode(codeStr); err != nil {
			return nil, err
		}
	}
	return &Metadata{Params: params, Code: code}, nil
}

// FromImage extracts and decodes the metadata embedded in img.
func FromImage(img image.Image, paramsOnly bool) (*Metadata, error) {
	paramsStr, codeStr, err := stego.Extract(img, paramsOnly)
	if err != nil {
		return nil, err
	}
	return Decode(paramsStr, codeStr)
}

// Retrieve opens the image at path and decodes its embedded metadata.
// With paramsOnly the code map is empty.
func Retrieve(path string, paramsOnly bool) (*Metadata, error) {
	img, err := raster.Open(path)
	if err != nil {
		return nil, err
	}
	return FromImage(img, paramsOnly)
}
