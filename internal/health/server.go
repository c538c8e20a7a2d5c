// Package health provides health check and monitoring for the lead service.
//
// This package implements:
//   - Poll loop state tracking (priming, cycling)
//   - Last cycle outcome and counts
//   - HTTP endpoints for /health and /metrics
package health

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Poll loop states reported by the monitor.
const (
	StateStarting = "starting"
	StatePriming  = "priming"
	StateCycling  = "cycling"
	StateStopped  = "stopped"
)

// Status is returned by the /health endpoint.
//
// Fields:
//   - Status: "healthy", or "degraded" while the last cycle failed
//   - Uptime: How long the process has been running
//   - PollState: Current poll loop state
//   - LastPollTime: When the last cycle finished
//   - LastPollStatus: "success" or the error of the last cycle
//   - Records: Records in the last successful snapshot
//   - Transitions: Transitions found by the last cycle
type Status struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	PollState      string `json:"poll_state"`
	LastPollTime   string `json:"last_poll_time"`
	LastPollStatus string `json:"last_poll_status"`
	Records        int    `json:"records"`
	Transitions    int    `json:"transitions"`
}

// Monitor tracks poll loop health.
//
// Thread-safety:
//   - All fields are protected by RWMutex
//   - Safe for concurrent updates from the poller and reads from HTTP
type Monitor struct {
	startTime      time.Time
	state          string
	lastPollTime   time.Time
	lastPollStatus string
	records        int
	transitions    int
	mu             sync.RWMutex
}

// NewMonitor creates a new health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		startTime:      time.Now(),
		state:          StateStarting,
		lastPollStatus: "not started",
	}
}

// SetState records the poll loop state.
func (m *Monitor) SetState(state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// UpdatePollStatus records the outcome of one cycle.
//
// Parameters:
//   - status: "success" or an error description
//   - records: snapshot size; ignored unless status is "success"
//   - transitions: transitions found in this cycle
func (m *Monitor) UpdatePollStatus(status string, records, transitions int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPollTime = time.Now()
	m.lastPollStatus = status
	if status == "success" {
		m.records = records
	}
	m.transitions = transitions
}

// GetStatus returns the current health status.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	overall := "healthy"
	if m.lastPollStatus != "success" && !m.lastPollTime.IsZero() {
		overall = "degraded"
	}

	last := ""
	if !m.lastPollTime.IsZero() {
		last = m.lastPollTime.Format("2006-01-02 15:04:05")
	}

	return Status{
		Status:         overall,
		Uptime:         time.Since(m.startTime).Round(time.Second).String(),
		PollState:      m.state,
		LastPollTime:   last,
		LastPollStatus: m.lastPollStatus,
		Records:        m.records,
		Transitions:    m.transitions,
	}
}

// NewServer builds the HTTP handler.
//
// Endpoints:
//   - GET /health: JSON health status (always 200; see Status.Status)
//   - GET /metrics: Prometheus exposition for gatherer
func NewServer(monitor *Monitor, gatherer prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, monitor.GetStatus())
	})
	if gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}
	return e
}

// StartServer serves e on port until ctx is cancelled.
//
// The server runs in a background goroutine and doesn't block. Shutdown is
// graceful with a five second deadline.
func StartServer(ctx context.Context, e *echo.Echo, port string, logger *zap.Logger) {
	go func() {
		logger.Info("✓ Health check server started", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("⚠️  Health check server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("⚠️  Health check server shutdown error", zap.Error(err))
		}
	}()
}
