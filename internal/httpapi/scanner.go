package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-sniper-core/internal/filter"
	"solana-sniper-core/internal/scanner"
)

type ScannerHandler struct {
	Scanner *scanner.Scanner
	Filter  *filter.TokenFilter
	// BaseCtx bounds scanners started over HTTP. Nil detaches them from the
	// request only.
	BaseCtx context.Context
	Logger  *zap.Logger
}

func (h *ScannerHandler) Register(r *gin.Engine) {
	g := r.Group("/api/scanner")
	g.POST("/start", h.start)
	g.POST("/stop", h.stop)
	g.GET("/opportunities", h.opportunities)
	g.GET("/config", h.getConfig)
	g.POST("/config", h.configure)
	g.GET("/filtered", h.filtered)
}

func (h *ScannerHandler) start(c *gin.Context) {
	ctx := h.BaseCtx
	if ctx == nil {
		ctx = context.WithoutCancel(c.Request.Context())
	}
	if err := h.Scanner.Start(ctx); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"active": h.Scanner.Active()}, nil)
}

func (h *ScannerHandler) stop(c *gin.Context) {
	h.Scanner.Stop()
	Ok(c, gin.H{"active": h.Scanner.Active()}, nil)
}

func (h *ScannerHandler) opportunities(c *gin.Context) {
	listing, err := h.Scanner.Opportunities(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Warn("batch fallback failed", zap.Error(err))
		}
		Ok(c, listing, map[string]any{"warning": err.Error()})
		return
	}
	Ok(c, listing, map[string]any{"count": len(listing.Opportunities)})
}

func (h *ScannerHandler) getConfig(c *gin.Context) {
	Ok(c, h.Scanner.Settings(), nil)
}

func (h *ScannerHandler) configure(c *gin.Context) {
	var req scanner.ScannerConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if err := h.Scanner.Configure(req); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, scanner.ErrInvalidConfig) {
			status = http.StatusBadRequest
		}
		Error(c, status, err.Error(), nil)
		return
	}
	Ok(c, h.Scanner.Settings(), nil)
}

func (h *ScannerHandler) filtered(c *gin.Context) {
	items := h.Scanner.Filtered(h.Filter.Settings())
	Ok(c, items, map[string]any{"count": len(items)})
}
