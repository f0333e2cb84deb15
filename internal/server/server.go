// Package server exposes the engine to the external orchestrator over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/plazalytics/plazacache/internal/engine"
	"github.com/plazalytics/plazacache/internal/geo"
)

// Server wraps the gin router around the engine and the legacy geo engine.
type Server struct {
	Engine *gin.Engine

	addr         string
	maxBodyBytes int64
	core         *engine.Engine
	legacy       *geo.Engine
	log          *slog.Logger
}

// New builds the router. mode selects gin's debug or release behavior.
func New(addr string, core *engine.Engine, legacy *geo.Engine, maxBodyBytes int64, mode string, log *slog.Logger) *Server {
	if mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		Engine:       r,
		addr:         addr,
		maxBodyBytes: maxBodyBytes,
		core:         core,
		legacy:       legacy,
		log:          log,
	}

	r.GET("/health", s.healthHandler)

	v1 := r.Group("/v1")
	{
		v1.POST("/periods/:key", s.loadPeriodHandler)
		v1.GET("/periods/:key/cached", s.periodCachedHandler)
		v1.DELETE("/periods/:key", s.evictPeriodHandler)

		v1.GET("/compare", s.compareHandler)
		v1.GET("/compare/cached", s.resultCachedHandler)
		v1.DELETE("/results", s.evictResultHandler)

		v1.POST("/maintenance/expire", s.expireHandler)
		v1.POST("/maintenance/sweep", s.sweepHandler)

		v1.GET("/stats", s.statsHandler)
		v1.GET("/cache", s.cacheInfoHandler)

		v1.POST("/geo/init", s.geoInitHandler)
		v1.GET("/nearby", s.nearbyHandler)
	}

	return s
}

func (s *Server) healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Engine,
	}

	s.log.Info("starting HTTP server", "address", s.addr)

	go func() {
		<-ctx.Done()
		s.log.Info("stopping HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("shutdown failed", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
