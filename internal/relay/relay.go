// Package relay is a reference implementation of the out-of-scope
// publish-subscribe transport (§1, internal/bus): a websocket client that
// decodes inbound signed events and hands each to a caller-supplied
// bus.EventHandler (for example one that calls registry.AddEvent). It
// exists to give the "signed events arrive at the registry" data flow
// described in §2 a concrete, runnable instantiation — it does not
// implement event signature verification, which belongs to the transport
// layer this library treats as an external collaborator.
//
// Grounded on the teacher's internal/gateway/server.go gorilla/websocket
// server loop, adapted here into a client that reads frames instead of
// serving them.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/tenex-chat/tenex-sub007/internal/bus"
	"github.com/tenex-chat/tenex-sub007/pkg/wire"
)

// Listener connects to a relay websocket endpoint, decodes each incoming
// text frame as a wire.Event, and invokes onEvent for it.
type Listener struct {
	url     string
	onEvent bus.EventHandler
}

// NewListener returns a Listener that will dial url and deliver decoded
// events to onEvent.
func NewListener(url string, onEvent bus.EventHandler) *Listener {
	return &Listener{url: url, onEvent: onEvent}
}

// Run dials the relay and reads frames until ctx is canceled or the
// connection closes. Malformed frames are logged and skipped; they do not
// terminate the loop.
func (l *Listener) Run(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return fmt.Errorf("relay: dialing %s: %w", l.url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("relay: read: %w", err)
		}

		var event wire.Event
		if err := json.Unmarshal(data, &event); err != nil {
			slog.Warn("relay: dropping malformed frame", "error", err)
			continue
		}
		l.onEvent(event)
	}
}
