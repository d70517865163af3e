// Package httpapi exposes the engine over HTTP: starting executions,
// inspecting them, and delivering signals. The engine itself stays
// transport-agnostic; this package is a thin echo layer over api.Engine.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/calderhq/calder/pkg/api"
)

// Server holds the dependencies for the HTTP API.
type Server struct {
	Engine api.Engine
	Logger *slog.Logger
}

// NewServer creates a new Server. A nil logger falls back to slog.Default.
func NewServer(engine api.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Engine: engine, Logger: logger}
}

// Register mounts the API routes on the given echo instance.
func (s *Server) Register(e *echo.Echo) {
	g := e.Group("/api/v1")
	g.POST("/workflows/:workflow/executions", s.StartExecution)
	g.GET("/executions", s.ListExecutions)
	g.GET("/executions/:id", s.GetExecution)
	g.POST("/executions/:id/signals/:name", s.DeliverSignal)
}

// startResponse is the minimal acknowledgement for a fire-and-forget start.
type startResponse struct {
	ExecutionID string     `json:"execution_id"`
	Status      api.Status `json:"status"`
}

// signalResponse reports what happened to a delivered signal.
type signalResponse struct {
	Result api.SignalResult `json:"result"`
}

// StartExecution starts a new execution of a registered workflow.
// The request body is the workflow's initial input (any JSON value).
// (POST /api/v1/workflows/:workflow/executions)
func (s *Server) StartExecution(c echo.Context) error {
	ctx := c.Request().Context()
	workflowID := c.Param("workflow")

	var input any
	if err := c.Bind(&input); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	exec, err := s.Engine.Start(ctx, workflowID, input)
	if err != nil {
		if errors.Is(err, api.ErrDefinitionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "unknown workflow: "+workflowID)
		}
		s.Logger.ErrorContext(ctx, "start execution failed",
			slog.String("workflow", workflowID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusAccepted, startResponse{
		ExecutionID: exec.ID,
		Status:      exec.Status,
	})
}

// GetExecution returns a full execution record, including per-step
// attempt logs.
// (GET /api/v1/executions/:id)
func (s *Server) GetExecution(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	exec, err := s.Engine.GetExecution(ctx, id)
	if err != nil {
		if errors.Is(err, api.ErrExecutionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "execution not found: "+id)
		}
		s.Logger.ErrorContext(ctx, "get execution failed",
			slog.String("execution_id", id), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, exec)
}

// ListExecutions returns execution records, optionally filtered by the
// workflow and status query parameters.
// (GET /api/v1/executions)
func (s *Server) ListExecutions(c echo.Context) error {
	ctx := c.Request().Context()

	opts := api.ExecutionListOptions{
		WorkflowID: c.QueryParam("workflow"),
		Status:     api.Status(c.QueryParam("status")),
	}

	execs, err := s.Engine.ListExecutions(ctx, opts)
	if err != nil {
		s.Logger.ErrorContext(ctx, "list executions failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if execs == nil {
		execs = []*api.WorkflowExecution{}
	}

	return c.JSON(http.StatusOK, execs)
}

// DeliverSignal writes a signal into an execution's signal bag, resuming
// it if it was paused. The request body is the signal payload.
// (POST /api/v1/executions/:id/signals/:name)
func (s *Server) DeliverSignal(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	name := c.Param("name")

	var payload any
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	result, err := s.Engine.Signal(ctx, id, name, payload)
	if err != nil {
		s.Logger.ErrorContext(ctx, "signal failed",
			slog.String("execution_id", id), slog.String("signal", name), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	status := http.StatusOK
	switch result {
	case api.SignalNotFound:
		status = http.StatusNotFound
	case api.SignalIgnored:
		status = http.StatusConflict
	}
	return c.JSON(status, signalResponse{Result: result})
}
