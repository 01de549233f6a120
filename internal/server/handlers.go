package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/stegaplots/pkg/buildinfo"
	stegoerrors "github.com/matzehuels/stegaplots/pkg/errors"
	"github.com/matzehuels/stegaplots/pkg/metadata"
	"github.com/matzehuels/stegaplots/pkg/observability"
	"github.com/matzehuels/stegaplots/pkg/payload"
	"github.com/matzehuels/stegaplots/pkg/raster"
	"github.com/matzehuels/stegaplots/pkg/stego"
)

// Response headers reported by the insert endpoint.
const (
	headerCapacity = "X-Stego-Capacity"
	headerBits     = "X-Stego-Bits"
	headerPSNR     = "X-Stego-PSNR"
	headerHeader   = "X-Stego-Header"
)

// healthResponse is returned by GET /api/v1/health.
type healthResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	FormatVersion string `json:"format_version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Version:       buildinfo.Version,
		FormatVersion: stego.Version,
	})
}

// =============================================================================
// Insert
// =============================================================================

func (s *Server) handleInsert(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}

	data, err := formFile(r, "image")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	img, _, err := raster.Decode(bytes.NewReader(data))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	params, err := formParams(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	code, err := formCode(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	format := raster.FormatPNG
	if f := r.URL.Query().Get("format"); f != "" {
		if !raster.ValidFormats[f] {
			s.fail(w, r, stegoerrors.New(stegoerrors.ErrCodeUnsupported, "unsupported output format %q", f))
			return
		}
		format = f
	}

	carrier := raster.FromImage(img)
	stream, err := stego.Encode(params, code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	start := time.Now()
	out, err := stream.Embed(carrier)
	observability.Codec().OnEmbed(r.Context(), carrier.Shape(), stream.Len(), time.Since(start), err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/"+format)
	w.Header().Set(headerCapacity, strconv.Itoa(carrier.Len()))
	w.Header().Set(headerBits, strconv.Itoa(stream.Len()))
	w.Header().Set(headerPSNR, formatPSNR(raster.PSNR(carrier, out)))
	w.Header().Set(headerHeader, strings.TrimRight(stream.Header.Text(), " "))
	if err := raster.Encode(w, out.Image(), format); err != nil {
		s.logger.Error("Write image", "err", err, "request_id", requestIDFrom(r.Context()))
	}
}

func formatPSNR(v float64) string {
	if math.IsInf(v, 1) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formParams merges the "params" JSON field and any "param" k=v fields.
func formParams(r *http.Request) (payload.Params, error) {
	params := payload.Params{}
	if raw := r.FormValue("params"); strings.TrimSpace(raw) != "" {
		m, err := payload.StrToDict(raw)
		if err != nil {
			return nil, err
		}
		params = m
	}
	return metadata.ParseAssignments(params, r.MultipartForm.Value["param"])
}

// formCode reads every "code" file part, keyed by its upload filename.
func formCode(r *http.Request) (payload.Code, error) {
	code := payload.Code{}
	for _, fh := range r.MultipartForm.File["code"] {
		if err := stegoerrors.ValidateUploadFilename(fh.Filename); err != nil {
			return nil, err
		}
		if _, dup := code[fh.Filename]; dup {
			return nil, stegoerrors.New(stegoerrors.ErrCodeInvalidInput, "duplicate code file %q", fh.Filename)
		}
		data, err := readPart(fh)
		if err != nil {
			return nil, err
		}
		code[fh.Filename] = string(data)
	}
	return code, nil
}

// =============================================================================
// Extract
// =============================================================================

// extractResponse is returned by POST /api/v1/stego/extract.
type extractResponse struct {
	Header string         `json:"header"`
	Params payload.Params `json:"params"`
	Code   payload.Code   `json:"code"`
	Cached bool           `json:"cached"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	paramsOnly, err := queryBool(r, "params_only")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := formFile(r, "image")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	rec, cached, err := s.reader.Read(r.Context(), data, paramsOnly)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	m, err := rec.Metadata()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, extractResponse{
		Header: rec.Header,
		Params: m.Params,
		Code:   m.Code,
		Cached: cached,
	})
}

// =============================================================================
// Capacity
// =============================================================================

// capacityResponse is returned by POST /api/v1/stego/capacity.
type capacityResponse struct {
	Shape        []int `json:"shape"`
	Samples      int   `json:"samples"`
	HeaderBits   int   `json:"header_bits"`
	PayloadBits  int   `json:"payload_bits"`
	PayloadBytes int   `json:"payload_bytes"`
}

func (s *Server) handleCapacity(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(r); err != nil {
		s.fail(w, r, err)
		return
	}
	data, err := formFile(r, "image")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	img, _, err := raster.Decode(bytes.NewReader(data))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c := raster.FromImage(img)
	capy := stego.CapacityOf(c)
	writeJSON(w, http.StatusOK, capacityResponse{
		Shape:        c.Shape(),
		Samples:      capy.Samples,
		HeaderBits:   capy.HeaderBits,
		PayloadBits:  capy.PayloadBits,
		PayloadBytes: capy.PayloadBytes(),
	})
}

// =============================================================================
// Form Helpers
// =============================================================================

func (s *Server) parseForm(r *http.Request) error {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return stegoerrors.Wrap(stegoerrors.ErrCodeInvalidInput, err, "request body exceeds %d bytes", s.maxUpload)
		}
		return stegoerrors.Wrap(stegoerrors.ErrCodeInvalidInput, err, "expected a multipart/form-data body")
	}
	return nil
}

func formFile(r *http.Request, field string) ([]byte, error) {
	fhs := r.MultipartForm.File[field]
	if len(fhs) == 0 {
		return nil, stegoerrors.New(stegoerrors.ErrCodeInvalidInput, "missing %q file field", field)
	}
	return readPart(fhs[0])
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, stegoerrors.New(stegoerrors.ErrCodeInvalidInput, "%s must be a boolean, got %q", name, raw)
	}
	return v, nil
}
