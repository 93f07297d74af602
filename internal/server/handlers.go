package server

import (
	"bytes"
	"encoding/json"
	"image"
	_ "image/gif"  // register GIF decoding
	_ "image/jpeg" // register JPEG decoding
	_ "image/png"  // register PNG decoding
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "golang.org/x/image/bmp"  // register BMP decoding
	_ "golang.org/x/image/tiff" // register TIFF decoding
	_ "golang.org/x/image/webp" // register WebP decoding

	"github.com/askiada/go-segsvg/pkg/vectorize"
)

var errUploadTooLarge = errors.New("upload too large")

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, vectorize.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, vectorize.ErrModelUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleSegmentSVG(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()
	logger := s.logger.With("request_id", reqID)
	ctx := r.Context()

	w.Header().Set("X-Request-ID", reqID)

	doc, err := s.segmentSVG(w, r, reqID, logger)
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			logger.ErrorContext(ctx, "segment-svg failed", "status", code, "error", err)
		} else {
			logger.InfoContext(ctx, "segment-svg rejected", "status", code, "error", err)
		}

		writeError(w, code, err)

		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)

	_, err = w.Write(doc)
	if err != nil {
		logger.WarnContext(ctx, "unable to write response", "error", err)

		return
	}

	logger.InfoContext(ctx, "segment-svg done", "bytes", len(doc), "elapsed", time.Since(start))
}

func (s *Server) segmentSVG(w http.ResponseWriter, r *http.Request, reqID string, logger *slog.Logger) ([]byte, error) {
	seg := s.currentSegmenter()
	if seg == nil {
		return nil, errors.Wrap(vectorize.ErrModelUnavailable, "model is still loading")
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	err := r.ParseMultipartForm(multipartMemory)
	defer releaseForm(r.MultipartForm, logger)

	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.Wrapf(errUploadTooLarge, "limit is %d bytes", tooLarge.Limit)
		}

		return nil, errors.Wrapf(vectorize.ErrInvalidInput, "unable to parse form: %v", err)
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, errors.Wrap(vectorize.ErrInvalidInput, "missing file field")
	}
	defer file.Close()

	img, format, err := s.decode(file)
	if err != nil {
		return nil, err
	}

	logger.DebugContext(r.Context(), "image decoded", "format", format, "bounds", img.Bounds().String())

	var (
		graph   bytes.Buffer
		runOpts []vectorize.RunOption
	)

	if s.graphDir != "" {
		runOpts = append(runOpts, vectorize.WithStageGraph(&graph))
	}

	doc, err := s.vectorizer.SegmentToSVG(r.Context(), seg, img, runOpts...)
	if err != nil {
		return nil, err
	}

	if graph.Len() > 0 {
		s.writeGraph(reqID, graph.Bytes(), logger)
	}

	return doc, nil
}

func (s *Server) decode(file multipart.File) (image.Image, string, error) {
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, "", errors.Wrapf(vectorize.ErrInvalidInput, "unable to read image: %v", err)
	}

	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > s.maxPixels {
		return nil, "", errors.Wrapf(vectorize.ErrInvalidInput, "image of %dx%d pixels is not accepted", cfg.Width, cfg.Height)
	}

	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, "", errors.Wrap(err, "unable to rewind upload")
	}

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, "", errors.Wrapf(vectorize.ErrInvalidInput, "unable to decode image: %v", err)
	}

	return img, format, nil
}

func (s *Server) writeGraph(reqID string, graph []byte, logger *slog.Logger) {
	path := filepath.Join(s.graphDir, reqID+".gv")

	err := os.WriteFile(path, graph, 0o600)
	if err != nil {
		logger.Warn("unable to write stage graph", "path", path, "error", err)
	}
}

// releaseForm removes the temporary files of a multipart upload. Failures are
// logged and never reach the client: the response is already decided.
func releaseForm(form *multipart.Form, logger *slog.Logger) {
	if form == nil {
		return
	}

	err := form.RemoveAll()
	if err != nil {
		logger.Warn("unable to remove multipart temporary files", "error", err)
	}
}
