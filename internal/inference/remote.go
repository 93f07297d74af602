// Package inference talks to the segmentation sidecar that hosts the model.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/go-segsvg/pkg/mask"
	"github.com/askiada/go-segsvg/pkg/vectorize"
)

const minPolygonPoints = 3

// Instance is one detection returned by the sidecar. Polygon is in pixel
// coordinates of the image the sidecar saw.
type Instance struct {
	Class      string       `json:"class"`
	Confidence float64      `json:"confidence"`
	Polygon    [][2]float64 `json:"polygon"`
}

type predictResponse struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Instances []Instance `json:"instances"`
}

// Remote is a vectorize.Segmenter backed by an HTTP sidecar.
type Remote struct {
	baseURL       string
	modelPath     string
	minConfidence float64
	client        *http.Client
	logger        *slog.Logger
}

// Option configures a Remote.
type Option func(r *Remote)

func WithHTTPClient(client *http.Client) Option {
	return func(r *Remote) {
		r.client = client
	}
}

// WithMinConfidence drops instances scored below minConfidence.
func WithMinConfidence(minConfidence float64) Option {
	return func(r *Remote) {
		r.minConfidence = minConfidence
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Remote) {
		r.logger = logger
	}
}

// NewRemote returns a client for the sidecar at baseURL, asking it to run the
// model stored at modelPath.
func NewRemote(baseURL, modelPath string, opts ...Option) *Remote {
	r := &Remote{
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelPath: modelPath,
		client:    http.DefaultClient,
		logger:    slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Segment sends img to the sidecar and returns one mask per kept instance,
// sized to the bounds of img.
func (r *Remote) Segment(ctx context.Context, img image.Image) ([]*mask.Mask, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.Wrap(vectorize.ErrInvalidInput, "empty image")
	}

	body, contentType, err := r.encodeRequest(img)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/predict", body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create request")
	}

	req.Header.Set("Content-Type", contentType)

	resp, err := r.do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var res predictResponse

	err = json.NewDecoder(resp.Body).Decode(&res)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode response")
	}

	bounds := img.Bounds()

	return r.toMasks(bounds.Dx(), bounds.Dy(), res), nil
}

func (r *Remote) encodeRequest(img image.Image) (io.Reader, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, "", errors.Wrap(err, "unable to create form file")
	}

	err = png.Encode(part, img)
	if err != nil {
		return nil, "", errors.Wrap(err, "unable to encode image")
	}

	err = writer.WriteField("model", r.modelPath)
	if err != nil {
		return nil, "", errors.Wrap(err, "unable to write model field")
	}

	err = writer.Close()
	if err != nil {
		return nil, "", errors.Wrap(err, "unable to close multipart writer")
	}

	return body, writer.FormDataContentType(), nil
}

// do sends req and maps transport failures and 503 answers to
// vectorize.ErrModelUnavailable. The caller closes the body.
func (r *Remote) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "inference request interrupted")
		}

		return nil, errors.Wrapf(vectorize.ErrModelUnavailable, "sidecar unreachable: %v", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusServiceUnavailable:
		resp.Body.Close()

		return nil, errors.Wrap(vectorize.ErrModelUnavailable, "sidecar is not ready")
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()

		return nil, errors.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
}

func (r *Remote) toMasks(width, height int, res predictResponse) []*mask.Mask {
	scaleX, scaleY := 1.0, 1.0
	if res.Width > 0 && res.Height > 0 {
		scaleX = float64(width) / float64(res.Width)
		scaleY = float64(height) / float64(res.Height)
	}

	masks := make([]*mask.Mask, 0, len(res.Instances))

	for i, inst := range res.Instances {
		if inst.Confidence < r.minConfidence {
			r.logger.Debug("instance below confidence threshold", "index", i, "class", inst.Class, "confidence", inst.Confidence)

			continue
		}

		if len(inst.Polygon) < minPolygonPoints {
			r.logger.Debug("instance polygon too short", "index", i, "class", inst.Class, "points", len(inst.Polygon))

			continue
		}

		masks = append(masks, Rasterize(width, height, inst.Polygon, scaleX, scaleY))
	}

	return masks
}

// Ready reports whether the sidecar answers its health check.
func (r *Remote) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(err, "unable to create request")
	}

	resp, err := r.do(ctx, req)
	if err != nil {
		return err
	}

	resp.Body.Close()

	return nil
}

var _ vectorize.Segmenter = (*Remote)(nil)
