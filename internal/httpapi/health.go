package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solana-sniper-core/internal/ledger"
	"solana-sniper-core/internal/scanner"
)

type HealthHandler struct {
	Scanner   *scanner.Scanner
	Ledger    *ledger.Ledger
	StartedAt time.Time
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/health", h.health)
}

func (h *HealthHandler) health(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if !h.StartedAt.IsZero() {
		body["uptime_seconds"] = int64(time.Since(h.StartedAt).Seconds())
	}
	if h.Scanner != nil {
		body["scanner_active"] = h.Scanner.Active()
		body["opportunities"] = h.Scanner.Store().Len()
	}
	if h.Ledger != nil {
		body["trades"] = h.Ledger.Len()
	}
	c.JSON(http.StatusOK, body)
}
