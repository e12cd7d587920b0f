package poseestimation

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/deepuav/gisnav/logging"
	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/rimage/transform"
	"github.com/deepuav/gisnav/spatialmath"
)

func testMatchInputs() *MatchInputs {
	return &MatchInputs{
		Query:      image.NewNRGBA(image.Rect(0, 0, 4, 3)),
		Reference:  image.NewNRGBA(image.Rect(0, 0, 4, 3)),
		Elevation:  rimage.NewEmptyElevationMap(4, 3),
		Intrinsics: transform.NewCameraIntrinsicsFromPinhole(4, 3, 5, 5, 2, 1.5),
	}
}

func newMatcherServer(t *testing.T, handler http.HandlerFunc) (*HTTPMatcher, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	cfg := DefaultConfig()
	cfg.MatcherEndpoint = server.URL + "/predictions/loftr"
	cfg.MatcherTimeout = time.Second
	matcher := NewHTTPMatcher(cfg, logging.NewTestLogger(t))
	return matcher, func() {
		matcher.Close()
		server.Close()
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	_, err := w.Write([]byte(body))
	test.That(t, err, test.ShouldBeNil)
}

func TestHTTPMatcherSuccess(t *testing.T) {
	var received matchRequest
	matcher, closeFn := newMatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		test.That(t, r.Method, test.ShouldEqual, http.MethodPost)
		test.That(t, r.URL.Path, test.ShouldEqual, "/predictions/loftr")
		test.That(t, json.NewDecoder(r.Body).Decode(&received), test.ShouldBeNil)
		// r rotates 90° about z
		writeJSON(t, w, `{"r": [[0, 1, 0], [-1, 0, 0], [0, 0, 1]], "t": [[1], [2], [3]]}`)
	})
	defer closeFn()

	pose, err := matcher.EstimatePose(context.Background(), testMatchInputs())
	test.That(t, err, test.ShouldBeNil)

	test.That(t, received.Query.Width, test.ShouldEqual, 4)
	test.That(t, received.Query.Height, test.ShouldEqual, 3)
	test.That(t, received.Query.Channels, test.ShouldEqual, 3)
	test.That(t, received.Query.Data, test.ShouldHaveLength, 36)
	test.That(t, received.Elevation.Channels, test.ShouldEqual, 1)
	test.That(t, received.Elevation.Data, test.ShouldHaveLength, 12)
	test.That(t, received.K, test.ShouldResemble, [][]float64{{5, 0, 2}, {0, 5, 1.5}, {0, 0, 1}})

	// r_world = rᵀ and t_world = r_world·t
	test.That(t, pose.Rotation.At(0, 1), test.ShouldAlmostEqual, -1)
	test.That(t, pose.Rotation.At(1, 0), test.ShouldAlmostEqual, 1)
	test.That(t, pose.Translation.X, test.ShouldAlmostEqual, -2)
	test.That(t, pose.Translation.Y, test.ShouldAlmostEqual, 1)
	test.That(t, pose.Translation.Z, test.ShouldAlmostEqual, 3)
}

func TestHTTPMatcherFlatTranslation(t *testing.T) {
	matcher, closeFn := newMatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"r": [[1, 0, 0], [0, 1, 0], [0, 0, 1]], "t": [4, 5, -6]}`)
	})
	defer closeFn()

	pose, err := matcher.EstimatePose(context.Background(), testMatchInputs())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pose.Translation.Z, test.ShouldAlmostEqual, -6)
	test.That(t, pose.Rotation.Angle(), test.ShouldAlmostEqual, 0)
}

func TestHTTPMatcherNoMatch(t *testing.T) {
	for _, body := range []string{
		`{}`,
		`{"t": [[1], [2], [3]]}`,
		`{"r": [[1, 0, 0], [0, 1, 0], [0, 0, 1]]}`,
		`{"r": [[1, 0, 0], [0, 1, 0], [0, 0, 1]], "t": null}`,
		`{"r": [[1, 0, 0], [0, 1, 0]], "t": [1, 2, 3]}`,
		`{"r": [[2, 0, 0], [0, 1, 0], [0, 0, 1]], "t": [1, 2, 3]}`,
		`{"r": [[1, 0, 0], [0, 1, 0], [0, 0, 1]], "t": [1, 2]}`,
		`{"r": [[1, 0, 0], [0, 1, 0], [0, 0, 1]], "t": [[1, 2], [3, 4], [5, 6]]}`,
		`{"r": "identity", "t": [1, 2, 3]}`,
		`not json`,
	} {
		matcher, closeFn := newMatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(t, w, body)
		})
		_, err := matcher.EstimatePose(context.Background(), testMatchInputs())
		closeFn()
		test.That(t, errors.Is(err, ErrNoMatch), test.ShouldBeTrue)
		test.That(t, Outcome(err), test.ShouldEqual, OutcomeNoMatch)
	}
}

func TestHTTPMatcherServiceUnavailable(t *testing.T) {
	t.Run("bad status", func(t *testing.T) {
		matcher, closeFn := newMatcherServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		})
		defer closeFn()
		_, err := matcher.EstimatePose(context.Background(), testMatchInputs())
		test.That(t, errors.Is(err, ErrServiceUnavailable), test.ShouldBeTrue)
		test.That(t, err.Error(), test.ShouldContainSubstring, "503")
	})

	t.Run("timeout", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		}))
		defer server.Close()
		cfg := DefaultConfig()
		cfg.MatcherEndpoint = server.URL
		cfg.MatcherTimeout = 50 * time.Millisecond
		matcher := NewHTTPMatcher(cfg, logging.NewTestLogger(t))
		defer matcher.Close()

		start := time.Now()
		_, err := matcher.EstimatePose(context.Background(), testMatchInputs())
		test.That(t, errors.Is(err, ErrServiceUnavailable), test.ShouldBeTrue)
		test.That(t, time.Since(start), test.ShouldBeLessThan, 2*time.Second)
	})

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		cfg := DefaultConfig()
		cfg.MatcherEndpoint = server.URL
		server.Close()
		matcher := NewHTTPMatcher(cfg, logging.NewTestLogger(t))
		_, err := matcher.EstimatePose(context.Background(), testMatchInputs())
		test.That(t, errors.Is(err, ErrServiceUnavailable), test.ShouldBeTrue)
		test.That(t, Outcome(err), test.ShouldEqual, OutcomeServiceUnavailable)
	})

	t.Run("incomplete inputs", func(t *testing.T) {
		matcher := NewHTTPMatcher(DefaultConfig(), logging.NewTestLogger(t))
		_, err := matcher.EstimatePose(context.Background(), &MatchInputs{})
		test.That(t, errors.Is(err, ErrUnavailable), test.ShouldBeTrue)
	})
}

func TestParseMatchResponseRoundTrip(t *testing.T) {
	// a matcher answer built from a known world pose yields that pose back
	rWorld := spatialmath.QuatToRotationMatrix(spatialmath.NewQuaternionFromEulerDegrees(20, -10, 5))
	r := rWorld.Transpose()
	tr := r.MulVec(r3.Vector{X: 30, Y: 40, Z: -50})

	rows := make([][]float64, 3)
	for i := range rows {
		row := r.Row(i)
		rows[i] = []float64{row.X, row.Y, row.Z}
	}
	body, err := json.Marshal(map[string]interface{}{
		"r": rows,
		"t": []float64{tr.X, tr.Y, tr.Z},
	})
	test.That(t, err, test.ShouldBeNil)

	pose, err := parseMatchResponse(body)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.AngleBetween(pose.Rotation, rWorld), test.ShouldAlmostEqual, 0, 1e-6)
	test.That(t, pose.Translation.X, test.ShouldAlmostEqual, 30, 1e-6)
	test.That(t, pose.Translation.Y, test.ShouldAlmostEqual, 40, 1e-6)
	test.That(t, pose.Translation.Z, test.ShouldAlmostEqual, -50, 1e-6)
}
