package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/webreader/internal/app"
	"github.com/hyperifyio/webreader/internal/player"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The token guards the stream; origins are not restricted.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event is one message on /api/events.
type Event struct {
	Type string `json:"type"`
	app.Response
}

func eventFor(s player.Snapshot) Event {
	r := app.Response{
		OK:          true,
		State:       string(s.State),
		PlayerState: string(s.State),
		Chars:       s.Chars,
		Chunks:      s.Chunks,
		Lang:        s.Lang,
		QueueLength: s.Remaining(),
		ActiveJob:   s.Job,
		Session:     s.Session,
	}
	return Event{Type: "state", Response: r}
}

// handleEvents streams a snapshot on connect and on every player change.
func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.opts.Events == nil {
		writeJSON(w, http.StatusNotFound, app.Response{Error: "No local player."})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ch, unsubscribe := s.opts.Events.Subscribe()
	defer unsubscribe()

	// Reader: handles pongs and notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(ev Event) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			log.Debug().Err(err).Msg("event write failed")
			return false
		}
		return true
	}
	if !send(eventFor(s.opts.Events.Status())) {
		return
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case snap, ok := <-ch:
			if !ok || !send(eventFor(snap)) {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		}
	}
}
