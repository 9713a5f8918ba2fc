package statusserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"replybot/internal/trigger"
	"replybot/internal/version"
)

type MatchRequest struct {
	Guild   string `json:"guild" query:"guild" form:"guild"`
	Content string `json:"content" query:"content" form:"content"`
}

type MatchResponse struct {
	Matched bool            `json:"matched"`
	Record  *trigger.Record `json:"record,omitempty"`
}

type ReloadResponse struct {
	Guild       string `json:"guild"`
	Invalidated bool   `json:"invalidated"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"app":     version.AppName,
		"build":   version.BuildDate,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"entries": s.engine.Cache().Len(),
	})
}

func (s *Server) handleCacheInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Cache().Stats())
}

func (s *Server) handleReload(c echo.Context) error {
	guild := c.Param("guild")
	return c.JSON(http.StatusOK, ReloadResponse{
		Guild:       guild,
		Invalidated: s.engine.Cache().Invalidate(guild),
	})
}

func (s *Server) handleMatch(c echo.Context) error {
	var req MatchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if strings.TrimSpace(req.Guild) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "guild is required"})
	}
	if req.Content == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "content is required"})
	}

	rec, ok := s.engine.Lookup(c.Request().Context(), req.Guild, req.Content)
	if !ok {
		return c.JSON(http.StatusNotFound, MatchResponse{Matched: false})
	}
	return c.JSON(http.StatusOK, MatchResponse{Matched: true, Record: &rec})
}
