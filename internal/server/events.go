package server

import "github.com/gofiber/websocket/v2"

// hello is the first message on /ws/events: the full session state.
type hello struct {
	Type    string      `json:"type"`
	Session sessionView `json:"session"`
}

// events streams session events as JSON until the client disconnects.
func (s *Server) events(conn *websocket.Conn) {
	events, cancel := s.deps.Session.Subscribe()
	defer cancel()

	if err := conn.WriteJSON(hello{Type: "snapshot", Session: s.sessionView()}); err != nil {
		return
	}

	// The client sends nothing; a read error means it went away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		}
	}
}
