package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/deepuav/gisnav/logging"
	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/services/poseestimation"
)

func TestFromReaderDefaults(t *testing.T) {
	cfg, err := FromReader("empty.json", strings.NewReader(`{}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, "empty.json")
	test.That(t, cfg.PoseEstimation, test.ShouldResemble, poseestimation.DefaultConfig())
	test.That(t, cfg.Staleness, test.ShouldResemble, sensorcache.DefaultStalenessConfig())
	test.That(t, cfg.Web.BindAddress, test.ShouldEqual, DefaultBindAddress)
	test.That(t, cfg.Log, test.ShouldResemble, LogConfig{MaxSizeMB: 100, MaxBackups: 3})
	test.That(t, cfg.Debug, test.ShouldBeFalse)
}

func TestFromReaderOverrides(t *testing.T) {
	cfg, err := FromReader("", strings.NewReader(`{
		"pose_estimation": {"matcher_endpoint": "http://matcher:8090/predictions/loftr", "matcher_timeout": "2s", "max_pitch_deg": 20},
		"staleness": {"image": "250ms", "orthoimage": "1m"},
		"web": {"bind_address": "0.0.0.0:9000"},
		"debug": true
	}`), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.PoseEstimation.MatcherEndpoint, test.ShouldEqual, "http://matcher:8090/predictions/loftr")
	test.That(t, cfg.PoseEstimation.MatcherTimeout, test.ShouldEqual, 2*time.Second)
	test.That(t, cfg.PoseEstimation.MaxPitchDegrees, test.ShouldEqual, 20)
	// unset fields keep their defaults
	test.That(t, cfg.PoseEstimation.MinMatchAltitudeMeters, test.ShouldEqual, poseestimation.DefaultMinMatchAltitudeMeters)
	test.That(t, cfg.Staleness.Image, test.ShouldEqual, 250*time.Millisecond)
	test.That(t, cfg.Staleness.OrthoImage, test.ShouldEqual, time.Minute)
	test.That(t, cfg.Staleness.HomeGeoPoint, test.ShouldEqual, 10*time.Second)
	test.That(t, cfg.Web.BindAddress, test.ShouldEqual, "0.0.0.0:9000")
	test.That(t, cfg.Debug, test.ShouldBeTrue)
}

func TestFromReaderErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		body     string
		expected string
	}{
		{`{`, "failed to decode Config from json"},
		{`{"pose_estiation": {}}`, "pose_estiation"},
		{`{"pose_estimation": {"matcher_timeout": "soon"}}`, "matcher_timeout"},
		{`{"pose_estimation": {"matcher_timeout": 10}}`, "duration must be a string"},
		{`{"pose_estimation": {"matcher_timeout": "10ns"}}`, "at least 1ms"},
		{`{"staleness": {"image": 500}}`, "duration must be a string"},
		{`{"pose_estimation": {"matcher_endpoint": "localhost"}}`, "not an absolute URL"},
		{`{"staleness": {"gimbal": "-1s"}}`, "must not be negative"},
		{`{"web": {"bind_address": "8080"}}`, "bind_address"},
		{`{"log": {"max_backups": -1}}`, "max_backups"},
	} {
		_, err := FromReader("", strings.NewReader(tc.body), logger)
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, tc.expected)
	}
}

func TestReadEnvSubstitution(t *testing.T) {
	t.Setenv("GISNAV_MATCHER_HOST", "matcher.local")
	path := filepath.Join(t.TempDir(), "gisnav.json")
	body := `{"pose_estimation": {"matcher_endpoint": "http://${GISNAV_MATCHER_HOST}:8090/predictions/loftr"}}`
	test.That(t, os.WriteFile(path, []byte(body), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.PoseEstimation.MatcherEndpoint, test.ShouldEqual, "http://matcher.local:8090/predictions/loftr")

	_, err = Read(filepath.Join(t.TempDir(), "missing.json"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWebConfigValidate(t *testing.T) {
	wc := WebConfig{}
	test.That(t, wc.Validate("web"), test.ShouldBeNil)
	test.That(t, wc.BindAddress, test.ShouldEqual, DefaultBindAddress)
}
