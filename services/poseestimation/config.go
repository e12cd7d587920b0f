package poseestimation

import (
	"math"
	"net/url"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

// Default policy values.
const (
	DefaultMatcherEndpoint            = "http://localhost:8090/predictions/loftr"
	DefaultMatcherTimeout             = 10 * time.Second
	DefaultMaxPitchDegrees            = 30.0
	DefaultMinMatchAltitudeMeters     = 80.0
	DefaultAttitudeDeviationThreshold = 10.0

	MinMatcherTimeout = time.Millisecond
)

// Config describes how to configure the pose estimator.
type Config struct {
	MatcherEndpoint string        `json:"matcher_endpoint"`
	MatcherTimeout  time.Duration `json:"matcher_timeout"`

	// MaxPitchDegrees is the largest accepted angle between the camera optical axis and nadir.
	MaxPitchDegrees float64 `json:"max_pitch_deg"`
	// MinMatchAltitudeMeters is the lowest terrain-relative altitude at which matching is attempted.
	MinMatchAltitudeMeters float64 `json:"min_match_altitude_m"`
	// AttitudeDeviationThresholdDegrees bounds the angle between the estimated and the gimbal attitude.
	AttitudeDeviationThresholdDegrees float64 `json:"attitude_deviation_threshold_deg"`
}

// DefaultConfig returns the default estimator policy.
func DefaultConfig() Config {
	return Config{
		MatcherEndpoint:                   DefaultMatcherEndpoint,
		MatcherTimeout:                    DefaultMatcherTimeout,
		MaxPitchDegrees:                   DefaultMaxPitchDegrees,
		MinMatchAltitudeMeters:            DefaultMinMatchAltitudeMeters,
		AttitudeDeviationThresholdDegrees: DefaultAttitudeDeviationThreshold,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.MatcherEndpoint == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "matcher_endpoint")
	}
	u, err := url.Parse(cfg.MatcherEndpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return goutils.NewConfigValidationError(path, errors.Errorf("matcher_endpoint %q is not an absolute URL", cfg.MatcherEndpoint))
	}
	if cfg.MatcherTimeout < MinMatcherTimeout {
		return goutils.NewConfigValidationError(path, errors.Errorf("matcher_timeout must be at least %s, got %s", MinMatcherTimeout, cfg.MatcherTimeout))
	}
	if math.IsNaN(cfg.MaxPitchDegrees) || cfg.MaxPitchDegrees < 0 || cfg.MaxPitchDegrees > 180 {
		return goutils.NewConfigValidationError(path, errors.Errorf("max_pitch_deg must be in [0, 180], got %v", cfg.MaxPitchDegrees))
	}
	if math.IsNaN(cfg.MinMatchAltitudeMeters) || cfg.MinMatchAltitudeMeters < 0 {
		return goutils.NewConfigValidationError(path, errors.Errorf("min_match_altitude_m must not be negative, got %v", cfg.MinMatchAltitudeMeters))
	}
	if threshold := cfg.AttitudeDeviationThresholdDegrees; math.IsNaN(threshold) || threshold <= 0 || threshold > 180 {
		return goutils.NewConfigValidationError(path,
			errors.Errorf("attitude_deviation_threshold_deg must be in (0, 180], got %v", cfg.AttitudeDeviationThresholdDegrees))
	}
	return nil
}
