package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Check is one dependency probed by the readiness endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Handler struct {
	checks  []Check
	started time.Time
}

// NewHandler with no checks reports ready as long as the process is up.
func NewHandler(checks ...Check) *Handler {
	return &Handler{
		checks:  checks,
		started: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	health := r.Group("/health")
	{
		health.GET("/live", h.Live)
		health.GET("/ready", h.Ready)
	}
}

func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready probes every check and answers 503 if any of them fails.
func (h *Handler) Ready(c *gin.Context) {
	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := check.Ping(ctx)
		cancel()

		if err != nil {
			status = http.StatusServiceUnavailable
			components[check.Name] = "DOWN"
			continue
		}
		components[check.Name] = "UP"
	}

	state := "UP"
	if status != http.StatusOK {
		state = "DOWN"
	}
	c.JSON(status, gin.H{"status": state, "components": components})
}
