package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/vetclinic/internal/handler/audit"
	"github.com/jwalitptl/vetclinic/internal/handler/auth"
	"github.com/jwalitptl/vetclinic/internal/handler/health"
	"github.com/jwalitptl/vetclinic/internal/handler/prometheus"
	"github.com/jwalitptl/vetclinic/internal/middleware"
	"github.com/jwalitptl/vetclinic/internal/model"
	"github.com/jwalitptl/vetclinic/pkg/logger"
	"github.com/jwalitptl/vetclinic/pkg/metrics"
	customvalidator "github.com/jwalitptl/vetclinic/pkg/validator"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// Handlers lists every resource handler the router mounts.
type Handlers struct {
	Auth        *auth.Handler
	Owner       Handler
	Pet         Handler
	Employee    Handler
	Appointment Handler
	Clinical    Handler
	Invoice     Handler
	Audit       *audit.Handler
	Health      *health.Handler
	Metrics     *prometheus.Handler
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        middleware.RateLimiterConfig
	RequestTimeout   time.Duration
	MaxBodyBytes     int64
}

type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	h       Handlers
	limiter *middleware.RateLimiter
}

func NewRouter(
	h Handlers,
	auth *middleware.AuthMiddleware,
	m *metrics.Metrics,
	log *logger.Logger,
	config RouterConfig,
) (*Router, error) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, errors.New("unexpected binding validator engine")
	}
	if err := customvalidator.Register(v); err != nil {
		return nil, err
	}

	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 1 << 20
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.Use(
		middleware.RequestID(),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.ErrorHandler(log),
		middleware.Metrics(m),
		middleware.SecurityHeaders(middleware.DefaultSecurityConfig()),
		middleware.SizeLimit(config.MaxBodyBytes),
		middleware.Timeout(config.RequestTimeout),
	)

	r := &Router{
		engine: engine,
		auth:   auth,
		h:      h,
	}
	if config.RateLimitEnabled {
		r.limiter = middleware.NewRateLimiter(config.RateLimit)
	}
	r.setup()
	return r, nil
}

// Engine returns the configured http.Handler.
func (r *Router) Engine() http.Handler {
	return r.engine
}

func (r *Router) rateLimit() []gin.HandlerFunc {
	if r.limiter == nil {
		return nil
	}
	return []gin.HandlerFunc{r.limiter.RateLimit()}
}

func (r *Router) setup() {
	if r.h.Health != nil {
		r.h.Health.RegisterRoutes(&r.engine.RouterGroup)
	}
	if r.h.Metrics != nil {
		r.h.Metrics.RegisterRoutes(r.engine)
	}

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	public := api.Group("", r.rateLimit()...)
	r.h.Auth.RegisterRoutes(public)

	protected := api.Group("", append([]gin.HandlerFunc{r.auth.Authenticate()}, r.rateLimit()...)...)
	r.h.Auth.RegisterProtectedRoutes(protected)
	for _, h := range []Handler{
		r.h.Owner,
		r.h.Pet,
		r.h.Employee,
		r.h.Appointment,
		r.h.Clinical,
		r.h.Invoice,
	} {
		h.RegisterRoutes(protected)
	}
	r.h.Audit.RegisterRoutes(protected, r.auth.RequireRole(model.RoleReceptionist))
}
