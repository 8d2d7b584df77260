// Package httpapi exposes a minimal read-only HTTP surface over a running
// Engine: a health check and per-instance variable inspection, built with
// the teacher's echo stack.
package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/lyzr/skript/internal/engine"
	"github.com/lyzr/skript/internal/logger"
)

// Server wraps an echo.Echo bound to one Engine.
type Server struct {
	echo *echo.Echo
	eng  *engine.Engine
}

// New builds a Server. Call ListenAndServe(addr) to start it.
func New(eng *engine.Engine, log *logger.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{echo: e, eng: eng}
	e.GET("/healthz", s.handleHealth)
	e.GET("/instances/:id", s.handleGetInstance)
	e.GET("/instances/:id/vars/:key", s.handleGetVar)
	return s
}

// ListenAndServe blocks serving on addr.
func (s *Server) ListenAndServe(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetInstance(c echo.Context) error {
	instanceID := c.Param("id")
	vars, err := s.eng.GetInstanceVars(c.Request().Context(), instanceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"instance_id": instanceID,
		"variables":   vars,
	})
}

func (s *Server) handleGetVar(c echo.Context) error {
	instanceID := c.Param("id")
	key := c.Param("key")
	val, ok, err := s.eng.GetInstanceVar(c.Request().Context(), instanceID, key)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "variable not found"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"key": key, "value": val})
}
