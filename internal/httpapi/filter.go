package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"solana-sniper-core/internal/domain"
	"solana-sniper-core/internal/filter"
)

type FilterHandler struct {
	Filter *filter.TokenFilter
}

func (h *FilterHandler) Register(r *gin.Engine) {
	g := r.Group("/api/filter")
	g.GET("/settings", h.getSettings)
	g.PUT("/settings", h.putSettings)
	g.POST("/validate", h.validate)
}

func (h *FilterHandler) getSettings(c *gin.Context) {
	Ok(c, h.Filter.Settings(), nil)
}

func (h *FilterHandler) putSettings(c *gin.Context) {
	var req domain.FilterSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if err := h.Filter.UpdateSettings(req); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, filter.ErrInvalidSettings) {
			status = http.StatusBadRequest
		}
		Error(c, status, err.Error(), nil)
		return
	}
	Ok(c, h.Filter.Settings(), nil)
}

// validate evaluates one opportunity against the active policy.
func (h *FilterHandler) validate(c *gin.Context) {
	var op domain.TokenOpportunity
	if err := c.ShouldBindJSON(&op); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	Ok(c, h.Filter.Evaluate(op), nil)
}
