// Package httpapi exposes the tracker over HTTP.
package httpapi

import (
	"net/http"
	"time"

	"github.com/Depado/ginprom"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tracker/internal/dashboard"
	"tracker/internal/logging"
)

// Options tune the router.
type Options struct {
	// SessionTTL is the session cookie lifetime.
	SessionTTL time.Duration
	// RequestTimeout bounds each handler's upstream work.
	RequestTimeout time.Duration
	// Instrument adds ginprom request metrics. It registers collectors with
	// the default registry, so enable it once per process.
	Instrument bool
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(svc *dashboard.Service, log logging.Interface, opts Options) *gin.Engine {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	engine := gin.New()
	engine.Use(errorLogger(log), requestLogger(log), gin.Recovery())
	if opts.Instrument {
		usePrometheus(engine)
	}

	h := handler{svc: svc, log: log, opts: opts}

	engine.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")
	api.GET("/matches", h.onAPIMatches())
	api.GET("/match/:matchId", h.onAPIMatch())
	api.GET("/player/:name/:tag", h.onAPIPlayer())
	api.POST("/player/:name/:tag/more", h.onAPIMore())
	api.GET("/player/:name/:tag/match/:matchId/scoreboard", h.onAPIScoreboard())

	return engine
}

func usePrometheus(engine *gin.Engine) {
	prom := ginprom.New(func(prom *ginprom.Prometheus) {
		prom.Namespace = "tracker"
		prom.Subsystem = "http"
	})
	engine.Use(prom.Instrument())
}
