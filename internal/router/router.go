package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/medibook/scheduler-api/internal/config"
	"github.com/medibook/scheduler-api/internal/middleware"
)

// Handler registers a set of routes on a group.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler additionally has routes that need no authentication.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

type Router struct {
	engine        *gin.Engine
	actor         *middleware.ActorMiddleware
	healthH       Handler
	slotH         Handler
	appointmentH  Handler
	availabilityH PublicHandler
	notificationH Handler
	metrics       *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(
	cfg *config.Config,
	log *zerolog.Logger,
	actor *middleware.ActorMiddleware,
	healthH Handler,
	slotH Handler,
	appointmentH Handler,
	availabilityH PublicHandler,
	notificationH Handler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:        engine,
		actor:         actor,
		healthH:       healthH,
		slotH:         slotH,
		appointmentH:  appointmentH,
		availabilityH: availabilityH,
		notificationH: notificationH,
		metrics:       newRouterMetrics(),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(log),
		middleware.Logger(log),
		r.metricsMiddleware(),
		middleware.Timeout(30*time.Second),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)),
	)

	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		engine.Use(limiter.Limit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	r.healthH.RegisterRoutes(api)

	// Browsing slots and schedules needs no token.
	r.slotH.RegisterRoutes(api)
	r.availabilityH.RegisterPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.actor.Authenticate())
	{
		r.appointmentH.RegisterRoutes(protected)
		r.availabilityH.RegisterRoutes(protected)
		r.notificationH.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "scheduler_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scheduler_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
