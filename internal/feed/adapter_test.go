package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"solana-sniper-core/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type recordingSink struct {
	mu   sync.Mutex
	ops  []domain.TokenOpportunity
	seen map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{seen: make(map[string]bool)}
}

func (s *recordingSink) Submit(op domain.TokenOpportunity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[op.Address] {
		return false
	}
	s.seen[op.Address] = true
	s.ops = append(s.ops, op)
	return true
}

func (s *recordingSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ops)
}

func (s *recordingSink) Ops() []domain.TokenOpportunity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.TokenOpportunity(nil), s.ops...)
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

const otherMint = "11111111111111111111111111111111"

func TestAdapter_SubscribesAndForwards(t *testing.T) {
	subscribed := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer c.Close()

		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var req subscribeRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal subscribe: %v", err)
			return
		}
		subscribed <- req.Method

		frames := []string{
			`{"message":"Successfully subscribed"}`,
			`{"mint":"` + testMint + `","name":"Alpha","symbol":"ALP","priceNative":"0.1","priceUsd":"2.5","liquidity":"40","createdAt":"x"}`,
			`garbage`,
			`{"mint":"` + testMint + `","name":"Changed","symbol":"CHG","priceUsd":"9","liquidity":"1"}`,
			`{"mint":"` + otherMint + `","name":"Beta","symbol":"BET","priceUsd":"oops","liquidity":"5"}`,
		}
		for _, f := range frames {
			if err := c.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	received := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	adapter := NewAdapter(Options{
		URL:   wsURL(server),
		Clock: func() time.Time { return received },
	})
	sink := newRecordingSink()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- adapter.Run(ctx, sink) }()

	select {
	case method := <-subscribed:
		if method != "subscribeNewToken" {
			t.Errorf("subscribe method = %q, want subscribeNewToken", method)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe message received")
	}

	waitFor(t, func() bool { return sink.Len() == 2 })
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	ops := sink.Ops()
	if ops[0].Address != testMint || ops[0].Name != "Alpha" || ops[0].Price != 2.5 || ops[0].Liquidity != 40 {
		t.Errorf("first op = %+v", ops[0])
	}
	if !ops[0].CreatedAt.Equal(received) {
		t.Errorf("CreatedAt = %v, want %v", ops[0].CreatedAt, received)
	}
	if ops[1].Address != otherMint || ops[1].Price != 0 {
		t.Errorf("second op = %+v", ops[1])
	}
}

func TestAdapter_ReturnsErrorOnServerClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_, _, _ = c.ReadMessage()
		c.Close()
	}))
	defer server.Close()

	adapter := NewAdapter(Options{URL: wsURL(server)})
	err := adapter.Run(context.Background(), newRecordingSink())
	if err == nil {
		t.Fatal("expected error when server closes the connection")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("unexpected cancellation error: %v", err)
	}
}

func TestAdapter_DialFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(server)
	server.Close()

	adapter := NewAdapter(Options{URL: url, HandshakeTimeout: time.Second})
	if err := adapter.Run(context.Background(), newRecordingSink()); err == nil {
		t.Fatal("expected dial error")
	}
}

func TestAdapter_CancelledBeforeDial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := NewAdapter(Options{URL: "ws://127.0.0.1:1"})
	if err := adapter.Run(ctx, newRecordingSink()); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
