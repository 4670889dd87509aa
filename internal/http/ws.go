package http

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"finledger/internal/log"
)

// handleWebsocket streams ledger-change events to the client as JSON
// messages. The connection closes when the client goes away or the server
// shuts down the subscription.
func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.WarnContext(r.Context(), "Websocket accept failed", log.FieldError, err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	events, cancel := s.store.Subscribe()
	defer cancel()

	ctx := r.Context()
	s.log.InfoContext(ctx, "Websocket client connected", log.FieldClientIP, extractClientIP(r))

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closingCtx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeCtx, cancelWrite := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, ev)
			cancelWrite()
			if err != nil {
				s.log.DebugContext(ctx, "Websocket write failed, dropping client", log.FieldError, err)
				return
			}
		}
	}
}
