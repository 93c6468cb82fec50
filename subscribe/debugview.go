package subscribe

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// publishResolution caps how often a debug view is pushed an update so a
// burst of deltas from one tick doesn't flood the socket: after an update
// is written, any update that arrives within this window is dropped rather
// than held back for later.
const publishResolution = 100 * time.Millisecond

var upgrader = websocket.Upgrader{}

// ServeDebugView upgrades an HTTP request to a websocket and streams the
// updates matching the subscriber's filter to it as JSON, at most one per
// publishResolution, until the client
// disconnects or ctx is cancelled. It is meant for operator tooling, not
// the game client itself.
func ServeDebugView(ctx context.Context, sub *Subscriber, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	last := time.Time{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-sub.Updates:
			if !ok {
				return nil
			}
			if time.Since(last) < publishResolution {
				continue
			}
			last = time.Now()
			if err := conn.SetWriteDeadline(time.Now().Add(time.Second)); err != nil {
				return err
			}
			if err := conn.WriteJSON(u); err != nil {
				return err
			}
		}
	}
}
