package httpapi

import (
	"github.com/gin-gonic/gin"

	"solana-sniper-core/internal/ledger"
)

type StatsHandler struct {
	Ledger *ledger.Ledger
}

func (h *StatsHandler) Register(r *gin.Engine) {
	g := r.Group("/api/stats")
	g.GET("/daily", h.daily)
	g.GET("/performance", h.performance)
}

func (h *StatsHandler) daily(c *gin.Context) {
	stats := h.Ledger.DailyStats()
	Ok(c, stats, map[string]any{"count": len(stats)})
}

func (h *StatsHandler) performance(c *gin.Context) {
	Ok(c, h.Ledger.PerformanceMetrics(), nil)
}
