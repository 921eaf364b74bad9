// Package api serves read-only run status over HTTP.
package api

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"github.com/samcharles93/helix/internal/version"
)

type Server struct {
	store *RunStore
}

func NewServer(store *RunStore) *Server {
	if store == nil {
		store = NewRunStore()
	}
	return &Server{store: store}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.GET("/v1/runs", s.handleListRuns)
	e.GET("/v1/runs/:id", s.handleGetRun)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.String(),
	})
}

func (s *Server) handleListRuns(c *echo.Context) error {
	return c.JSON(http.StatusOK, RunList{
		Object: "list",
		Data:   s.store.List(),
	})
}

func (s *Server) handleGetRun(c *echo.Context) error {
	id := c.Param("id")
	run, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "run "+id+" not found")
	}
	return c.JSON(http.StatusOK, run)
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}
