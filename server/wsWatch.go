package server

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// httpWatchAnnotations streams annotation change notifications over a
// websocket, one JSON message per change, until the client disconnects.
func (s *Server) httpWatchAnnotations(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	c, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Errorf("httpWatchAnnotations websocket upgrade failed: %v", err)
		return
	}
	defer c.Close()

	changes := s.Store.AddWatcher()
	defer s.Store.RemoveWatcher(changes)

	// Read from the websocket and post to our own channel, so that our single
	// loop sees both store changes and the client going away.
	closed := make(chan bool)
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		close(closed)
	}()

	for {
		select {
		case change := <-changes:
			if err := c.WriteJSON(change); err != nil {
				s.Log.Infof("httpWatchAnnotations write failed: %v", err)
				return
			}
		case <-closed:
			return
		}
	}
}
