package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/neurondb/NeuronFlow/internal/injector"
	"github.com/neurondb/NeuronFlow/internal/metrics"
	"github.com/neurondb/NeuronFlow/internal/response"
)

// HealthChecker is implemented by the database connection
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string                 `json:"Status"` // "healthy", "degraded", "unhealthy"
	Timestamp time.Time              `json:"Timestamp"`
	Checks    map[string]CheckResult `json:"Checks"`
	System    *metrics.SystemMetrics `json:"System,omitempty"`
}

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status   string `json:"Status"` // "pass", "warn", "fail"
	Message  string `json:"Message"`
	Duration string `json:"Duration"`
}

// HealthHandlers reports service health
type HealthHandlers struct {
	db        HealthChecker
	container *injector.Container
	diskPath  string
}

// NewHealthHandlers creates new health handlers; diskPath is reported in the system snapshot
func NewHealthHandlers(db HealthChecker, container *injector.Container, diskPath string) *HealthHandlers {
	return &HealthHandlers{db: db, container: container, diskPath: diskPath}
}

// Health handles GET /health
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckResult{
		"database":     h.checkDatabase(ctx),
		"cache":        h.checkCache(ctx),
		"file_storage": h.checkCapability(injector.CapabilityFileStorage),
	}

	status := "healthy"
	for _, check := range checks {
		if check.Status == "fail" {
			status = "unhealthy"
			break
		} else if check.Status == "warn" && status == "healthy" {
			status = "degraded"
		}
	}

	health := HealthStatus{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
		System:    metrics.CollectSystemMetrics(ctx, h.diskPath),
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	response.WriteSuccess(w, r, code, "Service is "+status, health)
	return nil
}

func (h *HealthHandlers) checkDatabase(ctx context.Context) CheckResult {
	start := time.Now()
	if h.db == nil {
		return CheckResult{Status: "fail", Message: "database not configured", Duration: time.Since(start).String()}
	}
	if err := h.db.HealthCheck(ctx); err != nil {
		return CheckResult{Status: "fail", Message: err.Error(), Duration: time.Since(start).String()}
	}
	return CheckResult{Status: "pass", Message: "database reachable", Duration: time.Since(start).String()}
}

func (h *HealthHandlers) checkCache(ctx context.Context) CheckResult {
	start := time.Now()
	impl, err := h.resolve(injector.CapabilityCache)
	if err != nil {
		return CheckResult{Status: "pass", Message: "cache disabled", Duration: time.Since(start).String()}
	}
	if p, ok := impl.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return CheckResult{Status: "warn", Message: err.Error(), Duration: time.Since(start).String()}
		}
	}
	return CheckResult{Status: "pass", Message: "cache reachable", Duration: time.Since(start).String()}
}

func (h *HealthHandlers) checkCapability(name string) CheckResult {
	start := time.Now()
	if _, err := h.resolve(name); err != nil {
		return CheckResult{Status: "warn", Message: name + " not registered", Duration: time.Since(start).String()}
	}
	return CheckResult{Status: "pass", Message: name + " registered", Duration: time.Since(start).String()}
}

func (h *HealthHandlers) resolve(name string) (interface{}, error) {
	if h.container == nil {
		return nil, injector.ErrNotRegistered
	}
	return h.container.Resolve(name)
}
