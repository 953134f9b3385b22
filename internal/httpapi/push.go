package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-solo/internal/obslog"
	"github.com/park285/cheese-solo/pkg/chessdto"
)

const (
	subscriberBuffer = 8
	writeTimeout     = 5 * time.Second
)

// Hub fans session snapshots out to websocket subscribers. Publish is a
// session.Observer.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan chessdto.Snapshot]struct{}
	last   *chessdto.Snapshot
	logger *zap.Logger
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan chessdto.Snapshot]struct{}), logger: obslog.L()}
}

// Publish never blocks; a slow subscriber loses its oldest queued snapshot.
func (h *Hub) Publish(s chessdto.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &s
	for ch := range h.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe() chan chessdto.Snapshot {
	ch := make(chan chessdto.Snapshot, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.last != nil {
		ch <- *h.last
	}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan chessdto.Snapshot) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// ServeHTTP upgrades to a websocket and streams snapshots until the client
// goes away. Client messages are ignored.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Warn("ws_accept_failed", zap.Error(err))
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ch := h.subscribe()
	defer h.unsubscribe(ch)
	h.logger.Debug("ws_subscribe", zap.String("remote", r.RemoteAddr))

	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case snap := <-ch:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, snap)
			cancel()
			if err != nil {
				h.logger.Debug("ws_write_failed", zap.Error(err))
				return
			}
		}
	}
}

// Watch dials a Hub and calls fn for every snapshot until ctx ends. Dropped
// connections are retried with backoff up to maxAttempts times in a row.
func Watch(ctx context.Context, wsURL string, maxAttempts int, fn func(chessdto.Snapshot)) error {
	failures := 0
	for {
		err := watchOnce(ctx, wsURL, fn, func() { failures = 0 })
		if ctx.Err() != nil {
			return ctx.Err()
		}
		failures++
		if failures > maxAttempts {
			return err
		}
		t := time.NewTimer(backoffDuration(failures))
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func watchOnce(ctx context.Context, wsURL string, fn func(chessdto.Snapshot), connected func()) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.Dial(dialCtx, wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close(websocket.StatusNormalClosure, "")
	connected()
	for {
		var snap chessdto.Snapshot
		if err := wsjson.Read(ctx, conn, &snap); err != nil {
			return err
		}
		fn(snap)
	}
}
