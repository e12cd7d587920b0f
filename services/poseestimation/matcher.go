package poseestimation

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	goutils "go.viam.com/utils"

	"github.com/deepuav/gisnav/logging"
	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/spatialmath"
)

// PoseEstimate is a camera pose in the matcher's world frame: the rotation from camera to world
// and the camera position.
type PoseEstimate struct {
	Rotation    *spatialmath.RotationMatrix
	Translation r3.Vector
}

// Matcher estimates the camera pose from a set of match inputs.
type Matcher interface {
	EstimatePose(ctx context.Context, inputs *MatchInputs) (*PoseEstimate, error)
}

// raster is a row-major array of numbers as exchanged with the matcher service.
type raster struct {
	Height   int       `json:"height"`
	Width    int       `json:"width"`
	Channels int       `json:"channels"`
	Data     []float64 `json:"data"`
}

type matchRequest struct {
	Query     raster      `json:"query"`
	Reference raster      `json:"reference"`
	Elevation raster      `json:"elevation"`
	K         [][]float64 `json:"k"`
}

type matchResponse struct {
	R [][]float64     `json:"r"`
	T json.RawMessage `json:"t"`
}

func rasterFromImage(img image.Image) raster {
	bounds := img.Bounds()
	r := raster{Height: bounds.Dy(), Width: bounds.Dx(), Channels: 3}
	r.Data = make([]float64, 0, r.Height*r.Width*r.Channels)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			r.Data = append(r.Data, float64(c.R), float64(c.G), float64(c.B))
		}
	}
	return r
}

func rasterFromElevation(em *rimage.ElevationMap) raster {
	return raster{Height: em.Height(), Width: em.Width(), Channels: 1, Data: em.Data()}
}

// HTTPMatcher calls a matching network served over HTTP. Requests are not retried.
type HTTPMatcher struct {
	endpoint string
	timeout  time.Duration
	client   http.Client
	logger   logging.Logger
}

// NewHTTPMatcher returns a matcher that posts to cfg.MatcherEndpoint.
func NewHTTPMatcher(cfg Config, logger logging.Logger) *HTTPMatcher {
	timeout := cfg.MatcherTimeout
	if timeout <= 0 {
		timeout = DefaultMatcherTimeout
	}
	return &HTTPMatcher{
		endpoint: cfg.MatcherEndpoint,
		timeout:  timeout,
		client:   http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Close releases idle connections.
func (m *HTTPMatcher) Close() {
	m.client.CloseIdleConnections()
}

// EstimatePose sends the inputs to the matcher service and converts its answer into a world
// referenced pose.
func (m *HTTPMatcher) EstimatePose(ctx context.Context, inputs *MatchInputs) (*PoseEstimate, error) {
	if inputs == nil || inputs.Query == nil || inputs.Reference == nil || inputs.Elevation == nil || inputs.Intrinsics == nil {
		return nil, errors.Wrap(ErrUnavailable, "incomplete match inputs")
	}
	body, err := json.Marshal(matchRequest{
		Query:     rasterFromImage(inputs.Query),
		Reference: rasterFromImage(inputs.Reference),
		Elevation: rasterFromElevation(inputs.Elevation),
		K:         inputs.Intrinsics.Rows(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "error encoding match request")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrapf(ErrServiceUnavailable, "error creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(ErrServiceUnavailable, "error querying matcher: %v", err)
	}
	defer func() {
		goutils.UncheckedError(resp.Body.Close())
	}()

	read, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(ErrServiceUnavailable, "failed to read body: %v", err)
	}
	m.logger.Debugw("matcher responded", "status", resp.StatusCode, "duration", time.Since(start), "bytes", len(read))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.Wrapf(ErrServiceUnavailable, "bad status code %d", resp.StatusCode)
	}

	return parseMatchResponse(read)
}

func parseMatchResponse(body []byte) (*PoseEstimate, error) {
	var res matchResponse
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, errors.Wrapf(ErrNoMatch, "malformed response: %v", err)
	}
	if len(res.R) != 3 || lo.SomeBy(res.R, func(row []float64) bool { return len(row) != 3 }) {
		return nil, errors.Wrap(ErrNoMatch, "response has no 3x3 rotation r")
	}
	r, err := spatialmath.NewRotationMatrix(lo.Flatten(res.R))
	if err != nil {
		return nil, errors.Wrapf(ErrNoMatch, "invalid rotation r: %v", err)
	}
	t, err := parseTranslation(res.T)
	if err != nil {
		return nil, err
	}

	// the matcher reports the world to camera transform, so invert the rotation to get the camera
	// attitude in the world frame
	rWorld := r.Transpose()
	return &PoseEstimate{Rotation: rWorld, Translation: rWorld.MulVec(t)}, nil
}

// parseTranslation accepts both a 3x1 column and a flat 3-vector.
func parseTranslation(raw json.RawMessage) (r3.Vector, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return r3.Vector{}, errors.Wrap(ErrNoMatch, "response has no translation t")
	}
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err != nil {
		var column [][]float64
		if err := json.Unmarshal(raw, &column); err != nil {
			return r3.Vector{}, errors.Wrapf(ErrNoMatch, "malformed translation t: %v", err)
		}
		if lo.SomeBy(column, func(row []float64) bool { return len(row) != 1 }) {
			return r3.Vector{}, errors.Wrap(ErrNoMatch, "translation t must be a 3x1 column")
		}
		flat = lo.Flatten(column)
	}
	if len(flat) != 3 {
		return r3.Vector{}, errors.Wrapf(ErrNoMatch, "translation t has %d entries", len(flat))
	}
	for _, v := range flat {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return r3.Vector{}, errors.Wrap(ErrNoMatch, "translation t is not finite")
		}
	}
	return r3.Vector{X: flat[0], Y: flat[1], Z: flat[2]}, nil
}
