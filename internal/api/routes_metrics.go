package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/charlesng35/gitteams/internal/app"
)

func registerMetricsRoutes(r *gin.Engine, cfg *app.Config) {
	if !cfg.Monitoring.Prometheus.Enabled {
		return
	}
	r.GET(normalizeEndpoint(cfg.Monitoring.Prometheus.Endpoint, "/metrics"), gin.WrapH(promhttp.Handler()))
}
