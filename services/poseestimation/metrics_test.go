package poseestimation

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"
)

func TestMetricsReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewMetrics(reg)
	test.That(t, err, test.ShouldBeNil)
	first.ObserveCycle(OutcomeNoMatch)

	// a second estimator against the same registry shares the collectors
	second, err := NewMetrics(reg)
	test.That(t, err, test.ShouldBeNil)
	second.ObserveCycle(OutcomeNoMatch)
	test.That(t, testutil.ToFloat64(first.Cycles.WithLabelValues(OutcomeNoMatch)), test.ShouldEqual, 2)
}

func TestMetricsNil(t *testing.T) {
	var m *Metrics
	m.ObserveCycle(OutcomePublished)
	m.ObserveDroppedFrame()
	m.ObserveMatcherDuration(time.Second)
	m.ObserveDeviation(3)
	test.That(t, m.Handler(), test.ShouldNotBeNil)
}

func TestMetricsHandler(t *testing.T) {
	m, err := NewMetrics(prometheus.NewRegistry())
	test.That(t, err, test.ShouldBeNil)
	m.ObserveDroppedFrame()
	m.ObserveMatcherDuration(300 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)
	test.That(t, rec.Body.String(), test.ShouldContainSubstring, "gisnav_pose_estimation_frames_dropped_total 1")
	test.That(t, rec.Body.String(), test.ShouldContainSubstring, "gisnav_matcher_request_duration_seconds_count 1")
}
