// Package main runs the pose estimation service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/deepuav/gisnav/config"
	"github.com/deepuav/gisnav/logging"
	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/services/poseestimation"
	"github.com/deepuav/gisnav/web"
)

const (
	// Flags.
	flagConfig = "config"
	flagDebug  = "debug"
	flagListen = "listen"
)

func main() {
	logger := logging.NewLogger("gisnav")
	if err := newApp(logger, run).Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}

type runFunc func(ctx context.Context, cfg *config.Config, logger logging.Logger) error

func newApp(logger logging.Logger, runService runFunc) *cli.App {
	return &cli.App{
		Name:  "gisnav",
		Usage: "estimate the geodetic pose of a drone camera by matching it against orthoimagery",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from `FILE`",
			},
			&cli.BoolFlag{
				Name:  flagDebug,
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagListen,
				Usage: "override the web bind address, e.g. localhost:8080",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool(flagDebug) {
				logger.SetLevel(logging.DEBUG)
			}
			logging.ReplaceGlobal(logger)
			return nil
		},
		Action: func(c *cli.Context) error {
			cfg, err := readConfig(c, logger)
			if err != nil {
				return err
			}
			if cfg.Debug {
				logger.SetLevel(logging.DEBUG)
			}
			if cfg.Log.File != "" {
				fileAppender := logging.NewFileAppender(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
				logger.AddAppender(fileAppender)
				defer func() {
					goutils.UncheckedError(fileAppender.Close())
				}()
			}
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runService(ctx, cfg, logger)
		},
	}
}

func readConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		var err error
		if cfg, err = config.Read(path, logger); err != nil {
			return nil, errors.Wrapf(err, "error reading config %q", path)
		}
	}
	if listen := c.String(flagListen); listen != "" {
		cfg.Web.BindAddress = listen
	}
	if err := cfg.Ensure(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg *config.Config, logger logging.Logger) (err error) {
	cache := sensorcache.NewCache(nil, cfg.Staleness)
	metrics, err := poseestimation.NewMetrics(nil)
	if err != nil {
		return err
	}
	matcher := poseestimation.NewHTTPMatcher(cfg.PoseEstimation, logger.Sublogger("matcher"))
	latest := web.NewLatestEstimate(logger.Sublogger("web"))
	estimator := poseestimation.NewEstimator(cfg.PoseEstimation, cache, matcher, latest, metrics,
		logger.Sublogger("pose_estimation"))
	defer func() {
		estimator.Close()
		matcher.Close()
		err = multierr.Combine(err, logger.Sync())
	}()

	logger.Infow("starting", "matcher_endpoint", cfg.PoseEstimation.MatcherEndpoint,
		"max_pitch_deg", cfg.PoseEstimation.MaxPitchDegrees,
		"min_match_altitude_m", cfg.PoseEstimation.MinMatchAltitudeMeters)
	server := web.NewServer(cache, estimator, latest, metrics, logger.Sublogger("web"))
	return web.RunWeb(ctx, cfg.Web.BindAddress, server, logger)
}
