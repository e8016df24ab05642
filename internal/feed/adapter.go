package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"solana-sniper-core/internal/observability"
)

// DefaultURL is the pump.fun data stream.
const DefaultURL = "wss://pumpportal.fun/api/data"

// subscribeNewToken is sent once after connecting.
type subscribeRequest struct {
	Method string `json:"method"`
}

// Options configures an Adapter.
type Options struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// ReadTimeout bounds the wait for each frame. Zero disables the deadline.
	ReadTimeout time.Duration
	Clock       func() time.Time
	Logger      *zap.Logger
}

// DefaultOptions returns the stock adapter configuration.
func DefaultOptions() Options {
	return Options{
		URL:              DefaultURL,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		ReadTimeout:      0,
	}
}

// Adapter connects to the new-token stream and forwards every valid event
// to a Sink. A Run ends on the first connection failure; restarting it is
// up to the caller (see Supervisor).
type Adapter struct {
	url              string
	handshakeTimeout time.Duration
	writeTimeout     time.Duration
	readTimeout      time.Duration
	now              func() time.Time
	logger           *zap.Logger
}

// NewAdapter creates an adapter. Zero fields in opts take DefaultOptions values.
func NewAdapter(opts Options) *Adapter {
	def := DefaultOptions()
	a := &Adapter{
		url:              opts.URL,
		handshakeTimeout: opts.HandshakeTimeout,
		writeTimeout:     opts.WriteTimeout,
		readTimeout:      opts.ReadTimeout,
		now:              opts.Clock,
		logger:           opts.Logger,
	}
	if a.url == "" {
		a.url = def.URL
	}
	if a.handshakeTimeout <= 0 {
		a.handshakeTimeout = def.HandshakeTimeout
	}
	if a.writeTimeout <= 0 {
		a.writeTimeout = def.WriteTimeout
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	a.logger = a.logger.Named("feed")
	return a
}

// Run dials the stream, subscribes and reads until ctx is cancelled or the
// connection fails. It returns ctx.Err() on cancellation.
func (a *Adapter) Run(ctx context.Context, sink Sink) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: a.handshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, a.url, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return a.fail("dial", fmt.Errorf("websocket dial: %w", err))
	}
	defer conn.Close()

	// Unblock ReadMessage when ctx ends. Close and WriteControl may run
	// concurrently with the reader.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	_ = conn.SetWriteDeadline(time.Now().Add(a.writeTimeout))
	if err := conn.WriteJSON(subscribeRequest{Method: "subscribeNewToken"}); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return a.fail("subscribe", fmt.Errorf("write subscribe: %w", err))
	}
	a.logger.Info("websocket connected", zap.String("url", a.url))

	for {
		if a.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(a.readTimeout))
		}
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return a.fail("read", fmt.Errorf("websocket read: %w", err))
		}
		if msgType != websocket.TextMessage {
			continue
		}
		a.handleFrame(data, sink)
	}
}

// handleFrame parses before touching the sink; a bad frame never reaches it.
func (a *Adapter) handleFrame(data []byte, sink Sink) {
	evt, err := DecodeEvent(data)
	if err != nil {
		reason := "decode"
		if json.Valid(data) {
			reason = "schema"
		}
		observability.RecordFeedMalformed(reason)
		a.logger.Warn("dropping malformed frame", zap.Error(err), zap.Int("bytes", len(data)))
		return
	}

	receivedAt := a.now()
	op := Normalize(evt, receivedAt)
	inserted := sink.Submit(op)
	observability.RecordFeedEvent(receivedAt.Unix())

	a.logger.Info("new pair",
		zap.String("mint", op.Address),
		zap.String("name", op.Name),
		zap.String("symbol", op.Symbol),
		zap.Float64("price_usd", op.Price),
		zap.Float64("liquidity", op.Liquidity),
		zap.String("created_at", string(evt.CreatedAt)),
		zap.Bool("inserted", inserted))
}

func (a *Adapter) fail(stage string, err error) error {
	observability.RecordFeedConnectionFailure(stage)
	a.logger.Error("feed connection failed", zap.String("stage", stage), zap.Error(err))
	return err
}
