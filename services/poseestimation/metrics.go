package poseestimation

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the Prometheus metrics of the estimator. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	Cycles          *prometheus.CounterVec
	FramesDropped   prometheus.Counter
	MatcherDuration prometheus.Histogram
	Deviation       prometheus.Histogram
}

// NewMetrics registers the estimator metrics against reg, defaulting to the global Prometheus
// registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	cycles, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gisnav_pose_estimation_cycles_total",
		Help: "Total number of pose estimation cycles, labeled by outcome.",
	}, []string{"outcome"}), "gisnav_pose_estimation_cycles_total")
	if err != nil {
		return nil, err
	}
	dropped, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gisnav_pose_estimation_frames_dropped_total",
		Help: "Camera frames dropped because a cycle was already in flight.",
	}), "gisnav_pose_estimation_frames_dropped_total")
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gisnav_matcher_request_duration_seconds",
		Help:    "Matcher service latency in seconds.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}), "gisnav_matcher_request_duration_seconds")
	if err != nil {
		return nil, err
	}
	deviation, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gisnav_pose_estimation_deviation_degrees",
		Help:    "Angle between the estimated and the gimbal attitude.",
		Buckets: []float64{1, 2, 5, 10, 20, 45, 90, 180},
	}), "gisnav_pose_estimation_deviation_degrees")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:        gatherer,
		Cycles:          cycles,
		FramesDropped:   dropped,
		MatcherDuration: duration,
		Deviation:       deviation,
	}, nil
}

// register returns the already registered collector of the same name and type if there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return c, errors.Errorf("collector %s already registered with incompatible type", name)
		}
		return c, err
	}
	return c, nil
}

// ObserveCycle counts a finished cycle.
func (m *Metrics) ObserveCycle(outcome string) {
	if m == nil {
		return
	}
	m.Cycles.WithLabelValues(outcome).Inc()
}

// ObserveDroppedFrame counts a frame that arrived while a cycle was in flight.
func (m *Metrics) ObserveDroppedFrame() {
	if m == nil {
		return
	}
	m.FramesDropped.Inc()
}

// ObserveMatcherDuration records the duration of a matcher call.
func (m *Metrics) ObserveMatcherDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.MatcherDuration.Observe(d.Seconds())
}

// ObserveDeviation records the attitude deviation of a matched pose.
func (m *Metrics) ObserveDeviation(deg float64) {
	if m == nil {
		return
	}
	m.Deviation.Observe(deg)
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
