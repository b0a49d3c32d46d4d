package events

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// FeedHandler returns an HTTP handler that upgrades the connection to
// WebSocket and streams every bus event to the client as a JSON frame.
// The connection is closed when the client goes away or falls too far behind.
func FeedHandler(bus *Bus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("events: websocket upgrade error: %v", err)
			return
		}
		defer conn.Close()

		id, ch := bus.Subscribe(64)
		defer bus.Unsubscribe(id)

		// Drain inbound frames so close/ping control messages are processed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case e, ok := <-ch:
				if !ok {
					return
				}
				if err := conn.WriteJSON(e); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Printf("events: websocket write error: %v", err)
					}
					return
				}
			}
		}
	}
}
