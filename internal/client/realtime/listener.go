// Package realtime subscribes the client to its user room and surfaces
// backend events (payment confirmations, reservation decisions) as they
// arrive. The connection uses the raw websocket endpoint the realtime
// service exposes alongside its sockjs transports.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Event mirrors the envelope the realtime service broadcasts.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type Listener struct {
	url     string
	token   string
	onEvent func(Event)
}

// NewListener takes the websocket URL of the realtime service and the
// session's access token. onEvent runs on the read loop goroutine.
func NewListener(url, token string, onEvent func(Event)) *Listener {
	return &Listener{url: url, token: token, onEvent: onEvent}
}

// Listen connects, joins the user room, and delivers events until the
// context is cancelled or the connection drops. Reconnects are the
// caller's choice; every failure is terminal for this attempt.
func (l *Listener) Listen(ctx context.Context) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+l.token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, l.url, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	join, _ := json.Marshal(map[string]string{"action": "join_user_room"})
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		var event Event
		if err := json.Unmarshal(message, &event); err != nil || event.Type == "" {
			continue
		}
		l.onEvent(event)
	}
}
