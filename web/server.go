// Package web provides the HTTP API that ingests the input feeds and serves pose estimates.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"goji.io"
	"goji.io/pat"

	"github.com/deepuav/gisnav/logging"
	"github.com/deepuav/gisnav/rimage"
	"github.com/deepuav/gisnav/rimage/transform"
	"github.com/deepuav/gisnav/sensorcache"
	"github.com/deepuav/gisnav/services/poseestimation"
)

// maxBodyBytes bounds request bodies; orthoimage tiles are the largest.
const maxBodyBytes = 64 << 20

// FrameHandler starts an estimation cycle for a new camera frame.
type FrameHandler interface {
	HandleFrame(frame image.Image) bool
}

// Server routes the feed and estimate endpoints.
type Server struct {
	cache   *sensorcache.Cache
	frames  FrameHandler
	latest  *LatestEstimate
	metrics *poseestimation.Metrics
	logger  logging.Logger
	mux     *goji.Mux
}

// NewServer returns a server writing feeds to cache and camera frames to frames. metrics may
// be nil.
func NewServer(
	cache *sensorcache.Cache,
	frames FrameHandler,
	latest *LatestEstimate,
	metrics *poseestimation.Metrics,
	logger logging.Logger,
) *Server {
	s := &Server{cache: cache, frames: frames, latest: latest, metrics: metrics, logger: logger, mux: goji.NewMux()}

	s.mux.HandleFunc(pat.Post("/api/v1/feeds/image"), s.handleImage)
	s.mux.HandleFunc(pat.Post("/api/v1/feeds/orthoimage"), handleJSON(s, func(o orthoImageJSON) error {
		tile, err := o.toTile()
		if err != nil {
			return err
		}
		s.cache.SetOrthoImage(tile)
		return nil
	}))
	s.mux.HandleFunc(pat.Post("/api/v1/feeds/camera_info"), handleJSON(s, func(k transform.CameraIntrinsics) error {
		if err := k.CheckValid(); err != nil {
			return err
		}
		s.cache.SetCameraIntrinsics(&k)
		return nil
	}))
	s.mux.HandleFunc(pat.Post("/api/v1/feeds/gimbal"), handleJSON(s, func(g gimbalJSON) error {
		q, err := g.Orientation.toQuaternion()
		if err != nil {
			return err
		}
		s.cache.SetGimbalOrientation(q)
		return nil
	}))
	s.mux.HandleFunc(pat.Post("/api/v1/feeds/altitude"), handleJSON(s, func(a altitudeJSON) error {
		s.cache.SetAltitude(a.toAltitude())
		return nil
	}))
	s.mux.HandleFunc(pat.Post("/api/v1/feeds/terrain_altitude"), handleJSON(s, func(a altitudeJSON) error {
		s.cache.SetTerrainAltitude(a.toAltitude())
		return nil
	}))
	s.mux.HandleFunc(pat.Post("/api/v1/feeds/terrain_geopoint"), handleJSON(s, func(p geoPointJSON) error {
		pt, err := p.toGeoPoint()
		if err != nil {
			return err
		}
		s.cache.SetTerrainGeoPoint(pt)
		return nil
	}))
	s.mux.HandleFunc(pat.Post("/api/v1/feeds/home_geopoint"), handleJSON(s, func(p geoPointJSON) error {
		pt, err := p.toGeoPoint()
		if err != nil {
			return err
		}
		s.cache.SetHomeGeoPoint(pt)
		return nil
	}))
	s.mux.HandleFunc(pat.Get("/api/v1/feeds"), s.handleFeedStatus)
	s.mux.HandleFunc(pat.Get("/api/v1/estimate"), s.handleEstimate)
	s.mux.Handle(pat.Get("/metrics"), metrics.Handler())
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("error reading image: %s", err), http.StatusBadRequest)
		return
	}
	img, err := rimage.DecodeImage(data)
	if err != nil {
		s.logger.Debugw("rejecting camera frame", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	started := s.frames.HandleFrame(img)
	writeJSON(w, s.logger, http.StatusAccepted, map[string]bool{"started": started})
}

func (s *Server) handleFeedStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, s.cache.Status())
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	estimate, ok := s.latest.Get()
	if !ok {
		http.Error(w, "no pose estimate published yet", http.StatusNotFound)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, newEstimateJSON(estimate))
}

// handleJSON decodes the request body into a T and hands it to apply. Decoding and apply
// errors are client errors.
func handleJSON[T any](s *Server, apply func(T) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg T
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&msg); err != nil {
			http.Error(w, fmt.Sprintf("error decoding %s: %s", r.URL.Path, err), http.StatusBadRequest)
			return
		}
		if err := apply(msg); err != nil {
			s.logger.Debugw("rejecting feed message", "path", r.URL.Path, "error", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, logger logging.Logger, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debugw("error writing response", "error", err)
	}
}

// RunWeb serves handler on addr. This function will block until the context is done.
func RunWeb(ctx context.Context, addr string, handler http.Handler, logger logging.Logger) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              listener.Addr().String(),
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Handler:           handler,
	}

	stopped := make(chan struct{})
	goutils.PanicCapturingGo(func() {
		defer close(stopped)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("error shutting down", "error", err)
		}
	})

	logger.Infow("serving", "url", fmt.Sprintf("http://%s", listener.Addr().String()))
	if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
