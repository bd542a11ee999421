package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/collab"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsReadTimeout  = 60 * time.Second
	wsPingPeriod   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Token auth already gates the endpoint; the browser origin is not a
	// trust boundary for this API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// collabSocket joins the caller to the project's collaboration channel and
// pumps frames both ways until the connection drops. Disconnect is the
// leave signal; no explicit goodbye message exists.
func (s *Server) collabSocket(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFromCtx(r.Context())
	projectID, err := pathUUID(r, "projectID")
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	// Get applies the read policy: members and public projects pass,
	// private projects the caller has no standing on read as not found.
	_, m, err := s.projects.Get(r.Context(), projectID, u.ID)
	if err != nil {
		writeError(w, s.log, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("ws upgrade failed", zap.Error(err))
		return
	}

	hub := s.hubs.Hub(projectID)
	sess := hub.Join(u, m)

	// Write pump: outbound frames plus keepalive pings.
	go func() {
		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()
		defer conn.Close()
		for {
			select {
			case f, ok := <-sess.Frames():
				if !ok {
					_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
					_ = conn.WriteMessage(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteJSON(f); err != nil {
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	// Read pump on the request goroutine.
	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
	for {
		var f collab.Frame
		if err := conn.ReadJSON(&f); err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		if err := sess.HandleFrame(f); err != nil {
			s.log.Debug("bad collab frame",
				zap.Stringer("user", u.ID),
				zap.Error(err),
			)
		}
	}

	sess.Leave()
	s.hubs.Release(hub)
	_ = conn.Close()
}
