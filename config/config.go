// Package config defines the structures to configure the pose estimation service.
package config

import (
	"net"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/services/poseestimation"
)

// A Config describes the configuration of the service.
type Config struct {
	ConfigFilePath string `json:"-"`

	PoseEstimation poseestimation.Config       `json:"pose_estimation"`
	Staleness      sensorcache.StalenessConfig `json:"staleness"`
	Web            WebConfig                   `json:"web"`
	Log            LogConfig                   `json:"log"`
	Debug          bool                        `json:"debug"`
}

// LogConfig describes the optional rotated log file written next to stdout.
type LogConfig struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
}

// Validate ensures all parts of the config are valid.
func (lc *LogConfig) Validate(path string) error {
	if lc.MaxSizeMB < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_size_mb must not be negative"))
	}
	if lc.MaxBackups < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_backups must not be negative"))
	}
	return nil
}

// Default returns a config with every field set to its default.
func Default() *Config {
	return &Config{
		PoseEstimation: poseestimation.DefaultConfig(),
		Staleness:      sensorcache.DefaultStalenessConfig(),
		Web:            WebConfig{BindAddress: DefaultBindAddress},
		Log:            LogConfig{MaxSizeMB: 100, MaxBackups: 3},
	}
}

// Ensure ensures all parts of the config are valid.
func (c *Config) Ensure() error {
	if err := c.PoseEstimation.Validate("pose_estimation"); err != nil {
		return err
	}
	if err := c.Staleness.Validate("staleness"); err != nil {
		return err
	}
	if err := c.Log.Validate("log"); err != nil {
		return err
	}
	return c.Web.Validate("web")
}

// DefaultBindAddress is the default address that will be listened on.
const DefaultBindAddress = "localhost:8080"

// WebConfig describes the HTTP server that ingests feeds and serves estimates.
type WebConfig struct {
	// BindAddress is the address that the web server will bind to.
	BindAddress string `json:"bind_address"`
}

// Validate ensures all parts of the config are valid.
func (wc *WebConfig) Validate(path string) error {
	if wc.BindAddress == "" {
		wc.BindAddress = DefaultBindAddress
	}
	if _, _, err := net.SplitHostPort(wc.BindAddress); err != nil {
		return utils.NewConfigValidationError(path, errors.Wrap(err, "error validating bind_address"))
	}
	return nil
}
