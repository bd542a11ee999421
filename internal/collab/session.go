package collab

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/pairpad/pairpad/internal/model"
)

// Session is one connected client on a hub. It is transport-agnostic: the
// WebSocket layer pumps inbound frames into HandleFrame and drains Frames()
// outbound. All mutable state is guarded by the hub's lock.
type Session struct {
	hub        *Hub
	user       model.UserInfo
	membership model.Membership

	out chan Frame

	// guarded by hub.mu
	currentFile *uuid.UUID // nil = nothing open; uuid.Nil = legacy blob
	typing      bool
	typingTimer *time.Timer
	lastSeen    time.Time
	closed      bool
}

// User returns the identity this session presents.
func (s *Session) User() model.UserInfo { return s.user }

// Membership returns the role the session joined with. It is a snapshot;
// a revoked collaborator keeps the session's capabilities until reconnect.
func (s *Session) Membership() model.Membership { return s.membership }

// Frames returns the outbound frame stream. The channel closes when the
// session leaves the hub or the hub shuts down.
func (s *Session) Frames() <-chan Frame { return s.out }

// HandleFrame applies one client frame. Unknown types are an error so a
// misbehaving client is noticed rather than silently ignored.
func (s *Session) HandleFrame(f Frame) error {
	switch f.Type {
	case FrameView:
		id, err := parseFileID(f.FileID)
		if err != nil {
			return err
		}
		s.hub.handleView(s, id)
		return nil
	case FrameChange:
		id, err := parseFileID(f.FileID)
		if err != nil {
			return err
		}
		s.hub.handleChange(s, id, f.Content)
		return nil
	default:
		return fmt.Errorf("unknown frame type %q", f.Type)
	}
}

// Leave detaches the session from its hub.
func (s *Session) Leave() { s.hub.Leave(s) }

// send enqueues without blocking; a full queue drops the frame. Hub lock held.
func (s *Session) send(f Frame) {
	if s.closed {
		return
	}
	select {
	case s.out <- f:
	default:
	}
}

// stopTypingTimerLocked stops a pending typing reset. Hub lock held.
func (s *Session) stopTypingTimerLocked() {
	if s.typingTimer != nil {
		s.typingTimer.Stop()
		s.typingTimer = nil
	}
}

// parseFileID maps the wire file id to the internal key; empty addresses
// the legacy blob.
func parseFileID(s string) (uuid.UUID, error) {
	if s == "" {
		return legacyBlob, nil
	}
	return uuid.FromString(s)
}
