// Package server exposes the dashboard views as a read-only JSON API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/KaramelBytes/solardash/internal/analysis"
	"github.com/KaramelBytes/solardash/internal/dataset"
	"github.com/KaramelBytes/solardash/internal/export"
)

// Options are the analysis defaults served when a request does not override them.
type Options struct {
	ListenAddr  string
	Summary     analysis.SummaryOptions
	RankColumn  string
	TopK        int
	SeriesLimit int
	ExportName  string
	// RowLimit caps /rows responses.
	RowLimit int
}

// DefaultOptions mirrors the CLI defaults.
func DefaultOptions() Options {
	return Options{
		ListenAddr:  ":8080",
		Summary:     analysis.DefaultSummaryOptions(),
		RankColumn:  analysis.DefaultRankColumn,
		TopK:        analysis.DefaultTopK,
		SeriesLimit: analysis.DefaultSeriesLimit,
		ExportName:  export.DefaultFileName,
		RowLimit:    100,
	}
}

// Server bundles router and dependencies for the REST API.
type Server struct {
	opt    Options
	data   dataset.Provider
	log    *slog.Logger
	engine *gin.Engine
}

// New constructs a server with routes and middleware. data is usually a
// *dataset.Memo so the sources are read once.
func New(opt Options, data dataset.Provider, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestIDMiddleware())
	engine.Use(requestLogMiddleware(logger))
	engine.Use(corsMiddleware())

	s := &Server{opt: opt, data: data, log: logger, engine: engine}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opt.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.log.Info("listening", "addr", s.opt.ListenAddr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/api/v1")
	v1.GET("/countries", s.handleCountries)
	v1.GET("/rows", s.handleRows)
	v1.GET("/summary", s.handleSummary)
	v1.GET("/top", s.handleTop)
	v1.GET("/distribution", s.handleDistribution)
	v1.GET("/series", s.handleSeries)
	v1.GET("/export.csv", s.handleExport)
}

const requestIDKey = "request_id"

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func requestLogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"request_id", c.GetString(requestIDKey),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
