package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/domain"
	"github.com/Enterprise-CMCS/managed-care-review-sub005/internal/revisions"
)

var validate = validator.New()

type requestValidator struct{}

func (requestValidator) Validate(i any) error {
	if err := validate.Struct(i); err != nil {
		return domain.NewInvalidArgumentError("%v", err)
	}
	return nil
}

// Server serves the HTTP API.
type Server struct {
	echo   *echo.Echo
	svc    *revisions.Service
	logger zerolog.Logger
}

// NewServer builds the router. gatherer backs /metrics; nil disables it.
func NewServer(svc *revisions.Service, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = requestValidator{}
	e.HTTPErrorHandler = errorHandler

	s := &Server{echo: e, svc: svc, logger: logger}
	e.Use(s.requestLogger)

	e.GET("/healthz", s.healthz)
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	registerContracts(e.Group("/contracts"), svc)
	registerRates(e.Group("/rates"), svc)
	registerSubmissions(e.Group("/submissions"), svc)
	return s
}

// Handler returns the router as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestLogger puts a request-scoped logger on the request context.
func (s *Server) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		requestID := req.Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		logger := s.logger.With().
			Str("request_id", requestID).
			Str("http_method", req.Method).
			Str("path", c.Path()).
			Logger()
		c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		logger.Debug().
			Int("status", c.Response().Status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return nil
	}
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.svc.Store().DB().PingContext(c.Request().Context()); err != nil {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("store ping failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
