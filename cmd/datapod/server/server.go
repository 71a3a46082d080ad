// Package server serves the catalog of a data pod over HTTP, read-only.
//
//	GET /api/full_course        -> {name: {location, file_format, logical_format, exists, provenance}}
//	GET /api/full_course/:name  -> {location, file_format, logical_format, exists, provenance}
//	GET /api/ingredients        -> {name: {location, file_format, logical_format}}
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/datapod/pkg/catalog"
	"github.com/opst/datapod/pkg/manifest"
	"github.com/opst/datapod/pkg/utils/echoutil"
)

const (
	PathFullCourse  = "/api/full_course"
	PathDish        = "/api/full_course/:name"
	PathIngredients = "/api/ingredients"
)

type server struct {
	silent         bool
	loglevel       string
	gracefulPeriod time.Duration
}

func defaultServerConfig() server {
	return server{
		loglevel:       "info",
		gracefulPeriod: 15 * time.Second,
	}
}

type Option func(*server) *server

// WithLogLevel sets log level: debug, info, warn, error or off.
//
// It is info by default.
func WithLogLevel(level string) Option {
	return func(s *server) *server {
		s.loglevel = level
		return s
	}
}

// set graceful period for shutdown.
//
// GracefulPeriod is 15 seconds by default.
func WithGracefulPeriod(d time.Duration) Option {
	return func(s *server) *server {
		s.gracefulPeriod = d
		return s
	}
}

// Silent hides the banner and the port of echo.
func Silent() Option {
	return func(s *server) *server {
		s.silent = true
		return s
	}
}

type Server struct {
	e              *echo.Echo
	gracefulPeriod time.Duration
}

// New builds Server serving the course and the input manifest.
func New(course catalog.FullCourse, inputs manifest.Manifest, opts ...Option) *Server {
	conf := defaultServerConfig()
	for _, o := range opts {
		conf = *o(&conf)
	}

	e := echo.New()
	if conf.silent {
		e.HideBanner = true
		e.HidePort = true
	}
	echoutil.SetLevel(e, conf.loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	e.GET(PathFullCourse, FullCourseHandler(course, inputs))
	e.GET(PathDish, DishHandler(course, inputs, "name"))
	e.GET(PathIngredients, IngredientsHandler(inputs))
	for _, r := range e.Routes() {
		e.Logger.Infof("route: %s %s", r.Method, r.Path)
	}

	return &Server{e: e, gracefulPeriod: conf.gracefulPeriod}
}

// Handler is the http.Handler of this server.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start listens on address, until ctx is done.
//
// When ctx is done, it shuts down the server gracefully, and returns nil.
func (s *Server) Start(ctx context.Context, address string) error {
	done := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		defer close(done)
		sctx, cancel := context.WithTimeout(context.Background(), s.gracefulPeriod)
		defer cancel()
		if err := s.e.Shutdown(sctx); err != nil {
			s.e.Logger.Error(err)
			s.e.Close()
		}
	})

	err := s.e.Start(address)
	if stop() {
		// stopped before ctx is done
		return err
	}
	<-done
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
