package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/ledger"
)

type TradeHandler struct {
	Journal *ledger.Journal
}

func (h *TradeHandler) Register(r *gin.Engine) {
	g := r.Group("/api/trades")
	g.GET("", h.list)
	g.POST("", h.record)
	g.DELETE("", h.clear)
	g.GET("/export", h.export)
	g.GET("/:address", h.byToken)
}

func (h *TradeHandler) list(c *gin.Context) {
	trades := h.Journal.Ledger().TradeLogs()
	Ok(c, trades, map[string]any{"count": len(trades)})
}

func (h *TradeHandler) record(c *gin.Context) {
	var req domain.TradeLog
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	stored, err := h.Journal.Record(c.Request.Context(), req)
	switch {
	case errors.Is(err, ledger.ErrInvalidTrade):
		Error(c, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, ledger.ErrDuplicateTrade):
		Error(c, http.StatusConflict, err.Error(), nil)
	case err != nil:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	default:
		Ok(c, stored, nil)
	}
}

func (h *TradeHandler) byToken(c *gin.Context) {
	trades := h.Journal.Ledger().TokenLogs(c.Param("address"))
	Ok(c, trades, map[string]any{"count": len(trades)})
}

func (h *TradeHandler) export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Journal.Ledger().WriteCSV(&buf); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	name := fmt.Sprintf("trades-%s.csv", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *TradeHandler) clear(c *gin.Context) {
	if err := h.Journal.Clear(c.Request.Context()); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"cleared": true}, nil)
}
