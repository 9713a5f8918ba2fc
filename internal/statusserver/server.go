// Package statusserver exposes a small ops API: health, trigger cache
// counters, cache invalidation and a deterministic match lookup.
package statusserver

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"replybot/internal/trigger"
)

type Server struct {
	engine  *trigger.Engine
	e       *echo.Echo
	started time.Time
}

func New(engine *trigger.Engine) *Server {
	s := &Server{engine: engine, e: echo.New(), started: time.Now()}
	s.e.HideBanner = true
	s.e.HidePort = true

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Printf("[INFO] %s %s -> %d (%v)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	s.e.GET("/health", s.handleHealth)
	s.e.GET("/admin/cache-info", s.handleCacheInfo)
	s.e.POST("/admin/reload/:guild", s.handleReload)
	s.e.GET("/match", s.handleMatch)
	s.e.POST("/match", s.handleMatch)
	return s
}

func (s *Server) Handler() http.Handler { return s.e }

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) {
	go func() {
		<-ctx.Done()
		log.Println("[INFO] Shutting down status server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.e.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] Status server shutdown: %v", err)
		}
	}()

	log.Printf("[INFO] Status server listening on %s", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("[ERR] Status server exited: %v", err)
	}
}
