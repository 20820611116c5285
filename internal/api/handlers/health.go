package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/irfndi/cryptogap-go/internal/services"
	"github.com/irfndi/cryptogap-go/pkg/ccxt"
)

var startTime = time.Now()

const (
	statusHealthy   = "healthy"
	statusDisabled  = "disabled"
	statusUnhealthy = "unhealthy"
)

// HealthChecker is implemented by the Postgres and Redis connections.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// CCXTHealthChecker pings the exchange sidecar.
type CCXTHealthChecker interface {
	HealthCheck(ctx context.Context) (*ccxt.HealthResponse, error)
}

// PollerStatus reports the background calculation loop.
type PollerStatus interface {
	GetStatus() services.ServiceStatus
}

// HealthDeps lists what /health inspects. Nil entries are reported as disabled.
type HealthDeps struct {
	Database      HealthChecker
	Redis         HealthChecker
	CCXT          CCXTHealthChecker
	Poller        PollerStatus
	Notifications bool
	Analysis      bool
	Version       string
}

type MemoryStats struct {
	TotalMB     uint64  `json:"total_mb"`
	UsedMB      uint64  `json:"used_mb"`
	UsedPercent float64 `json:"used_percent"`
}

type HealthResponse struct {
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	Services  map[string]string       `json:"services"`
	Poller    *services.ServiceStatus `json:"poller,omitempty"`
	Memory    *MemoryStats            `json:"memory,omitempty"`
	Version   string                  `json:"version"`
	Uptime    string                  `json:"uptime"`
}

type HealthHandler struct {
	deps HealthDeps
}

func NewHealthHandler(deps HealthDeps) *HealthHandler {
	return &HealthHandler{deps: deps}
}

// HealthCheck answers 503 when the sidecar or an enabled store is down.
// Disabled components do not affect the status.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	svc := map[string]string{
		"database":      checkStore(ctx, h.deps.Database),
		"redis":         checkStore(ctx, h.deps.Redis),
		"ccxt":          h.checkCCXT(ctx),
		"notifications": enabledStatus(h.deps.Notifications),
		"analysis":      enabledStatus(h.deps.Analysis),
	}

	overall := statusHealthy
	for _, name := range []string{"database", "redis", "ccxt"} {
		if svc[name] != statusHealthy && svc[name] != statusDisabled {
			overall = statusUnhealthy
			break
		}
	}

	resp := HealthResponse{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Services:  svc,
		Memory:    memoryStats(),
		Version:   h.deps.Version,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
	if h.deps.Poller != nil {
		status := h.deps.Poller.GetStatus()
		resp.Poller = &status
	}

	code := http.StatusOK
	if overall != statusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, resp)
}

func checkStore(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return statusDisabled
	}
	if err := checker.HealthCheck(ctx); err != nil {
		return statusUnhealthy + ": " + err.Error()
	}
	return statusHealthy
}

func (h *HealthHandler) checkCCXT(ctx context.Context) string {
	if h.deps.CCXT == nil {
		return statusDisabled
	}
	if _, err := h.deps.CCXT.HealthCheck(ctx); err != nil {
		return statusUnhealthy + ": " + err.Error()
	}
	return statusHealthy
}

func enabledStatus(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return statusDisabled
}

func memoryStats() *MemoryStats {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return nil
	}
	return &MemoryStats{
		TotalMB:     vm.Total / 1024 / 1024,
		UsedMB:      vm.Used / 1024 / 1024,
		UsedPercent: vm.UsedPercent,
	}
}
