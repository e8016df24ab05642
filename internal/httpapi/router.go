package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"solana-sniper-core/internal/filter"
	"solana-sniper-core/internal/ledger"
	"solana-sniper-core/internal/observability"
	"solana-sniper-core/internal/scanner"
)

// Deps are the components served by the router.
type Deps struct {
	Scanner *scanner.Scanner
	Filter  *filter.TokenFilter
	Journal *ledger.Journal
	// BaseCtx is the process lifetime context handed to scanners started over HTTP.
	BaseCtx     context.Context
	MetricsPath string // empty disables /metrics
	StartedAt   time.Time
	Logger      *zap.Logger
}

// NewRouter builds the gin engine with every handler registered.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))

	(&HealthHandler{Scanner: d.Scanner, Ledger: d.Journal.Ledger(), StartedAt: d.StartedAt}).Register(engine)
	if d.MetricsPath != "" {
		engine.GET(d.MetricsPath, gin.WrapH(observability.Handler()))
	}
	(&ScannerHandler{Scanner: d.Scanner, Filter: d.Filter, BaseCtx: d.BaseCtx, Logger: logger}).Register(engine)
	(&FilterHandler{Filter: d.Filter}).Register(engine)
	(&TradeHandler{Journal: d.Journal}).Register(engine)
	(&StatsHandler{Ledger: d.Journal.Ledger()}).Register(engine)

	return engine
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		}
		if c.Writer.Status() >= 500 {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}
