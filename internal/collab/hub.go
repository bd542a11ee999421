package collab

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/pairpad/pairpad/internal/model"
)

// ContentStore is the persistence boundary of the sync policy. Saves carry
// no version check; the last successful write wins in full.
type ContentStore interface {
	SaveFileContent(ctx context.Context, fileID uuid.UUID, content string) error
	SaveProjectCode(ctx context.Context, projectID uuid.UUID, content string) error
}

const (
	// DefaultSaveDelay is the persist debounce window.
	DefaultSaveDelay = time.Second
	// DefaultTypingQuiet clears the typing flag after this much silence.
	DefaultTypingQuiet = 1500 * time.Millisecond

	// sessionBuffer is the per-session outbound queue. A receiver that
	// falls this far behind starts losing frames; the next full-content
	// broadcast makes it whole again.
	sessionBuffer = 64

	persistTimeout = 5 * time.Second
)

// Hub is one project's collaboration channel. Hubs are independent arenas:
// one per project, created on first join and disposed when the last session
// leaves. Never a process-global singleton.
type Hub struct {
	projectID   uuid.UUID
	log         *zap.Logger
	store       ContentStore
	typingQuiet time.Duration
	deb         *Debouncer

	mu       sync.Mutex
	sessions map[*Session]struct{}
	// lastHash remembers the last broadcast content per file so identical
	// consecutive broadcasts are suppressed.
	lastHash map[uuid.UUID]uint64
	closed   bool
}

// NewHub constructs a hub for one project.
func NewHub(projectID uuid.UUID, store ContentStore, log *zap.Logger, saveDelay, typingQuiet time.Duration) *Hub {
	if saveDelay <= 0 {
		saveDelay = DefaultSaveDelay
	}
	if typingQuiet <= 0 {
		typingQuiet = DefaultTypingQuiet
	}
	h := &Hub{
		projectID:   projectID,
		log:         log,
		store:       store,
		typingQuiet: typingQuiet,
		sessions:    make(map[*Session]struct{}),
		lastHash:    make(map[uuid.UUID]uint64),
	}
	h.deb = NewDebouncer(saveDelay, h.persist)
	return h
}

// ProjectID returns the project this hub serves.
func (h *Hub) ProjectID() uuid.UUID { return h.projectID }

// Join adds a session, sends it the current membership snapshot and
// announces it to everyone already connected. Presence is sync-on-join and
// eventually consistent; brief windows of stale membership are fine.
func (h *Hub) Join(user model.UserInfo, m model.Membership) *Session {
	s := &Session{
		hub:        h,
		user:       user,
		membership: m,
		out:        make(chan Frame, sessionBuffer),
		lastSeen:   time.Now(),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(s.out)
		s.closed = true
		return s
	}
	roster := make([]UserState, 0, len(h.sessions)+1)
	for other := range h.sessions {
		roster = append(roster, userState(other.user, other.currentFile, other.typing))
	}
	roster = append(roster, userState(user, nil, false))
	h.sessions[s] = struct{}{}

	s.send(Frame{Type: FrameRoster, Roster: roster})
	st := userState(user, nil, false)
	h.broadcastLocked(Frame{Type: FramePresence, User: &st}, s)
	h.mu.Unlock()
	return s
}

// Leave flushes the session's dirty file, removes it and announces the
// departure. Channel membership is the liveness signal; no explicit delete
// message is required of clients.
func (h *Hub) Leave(s *Session) {
	h.mu.Lock()
	if _, ok := h.sessions[s]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, s)
	s.stopTypingTimerLocked()
	if !s.closed {
		close(s.out)
		s.closed = true
	}
	flush := s.currentFile
	st := userState(s.user, nil, false)
	h.broadcastLocked(Frame{Type: FrameLeave, User: &st}, nil)
	h.mu.Unlock()

	if flush != nil {
		h.deb.Flush(*flush)
	}
}

// Empty reports whether no sessions remain.
func (h *Hub) Empty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions) == 0
}

// Close flushes all pending persists and disconnects every session.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	for s := range h.sessions {
		delete(h.sessions, s)
		s.stopTypingTimerLocked()
		if !s.closed {
			close(s.out)
			s.closed = true
		}
	}
	h.mu.Unlock()

	h.deb.FlushAll()
}

// broadcastLocked fans a frame out to every session except skip. Callers
// hold h.mu. Delivery is at-least-once in arrival order per receiver; a
// full slow consumer loses the frame rather than blocking the hub.
func (h *Hub) broadcastLocked(f Frame, skip *Session) {
	for s := range h.sessions {
		if s == skip {
			continue
		}
		s.send(f)
	}
}

// handleView records the session's open file. Any pending persist for the
// file it is switching away from is flushed immediately so no edit is lost
// on navigation.
func (h *Hub) handleView(s *Session, fileID uuid.UUID) {
	h.mu.Lock()
	prev := s.currentFile
	s.currentFile = &fileID
	s.lastSeen = time.Now()
	st := userState(s.user, s.currentFile, s.typing)
	h.broadcastLocked(Frame{Type: FramePresence, User: &st}, s)
	h.mu.Unlock()

	if prev != nil && *prev != fileID {
		h.deb.Flush(*prev)
	}
}

// handleChange is the sync policy's hot path: mark typing, broadcast the
// entire new content to co-viewers of the file, and (re)start the debounced
// persist. Identical consecutive content is suppressed entirely.
func (h *Hub) handleChange(s *Session, fileID uuid.UUID, content string) {
	if !s.membership.CanEdit() {
		h.log.Warn("change from read-only session dropped",
			zap.Stringer("project", h.projectID),
			zap.Stringer("user", s.user.ID),
		)
		return
	}

	hash := contentHash(content)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	s.lastSeen = time.Now()
	// A change implies the sender is looking at the file it edits.
	if s.currentFile == nil || *s.currentFile != fileID {
		f := fileID
		s.currentFile = &f
	}
	if h.lastHash[fileID] == hash {
		h.mu.Unlock()
		return
	}
	h.lastHash[fileID] = hash

	// Origin id rides along so receivers can drop their own echo; the hub
	// additionally never sends a change back to the session it came from.
	// Only sessions viewing the same file receive it.
	f := Frame{Type: FrameChange, FileID: "", UserID: s.user.ID.String(), Content: content}
	if fileID != legacyBlob {
		f.FileID = fileID.String()
	}
	for other := range h.sessions {
		if other == s || other.currentFile == nil || *other.currentFile != fileID {
			continue
		}
		other.send(f)
	}

	h.markTypingLocked(s)
	h.mu.Unlock()

	h.deb.Schedule(fileID, content)
}

// markTypingLocked sets the typing flag and arms the quiet timer,
// cancel-and-replace. Clearing is a local debounce, not a server-pushed
// timeout from elsewhere.
func (h *Hub) markTypingLocked(s *Session) {
	if !s.typing {
		s.typing = true
		st := userState(s.user, s.currentFile, true)
		h.broadcastLocked(Frame{Type: FramePresence, User: &st}, s)
	}
	if s.typingTimer != nil {
		s.typingTimer.Stop()
	}
	s.typingTimer = time.AfterFunc(h.typingQuiet, func() { h.clearTyping(s) })
}

func (h *Hub) clearTyping(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s]; !ok || !s.typing {
		return
	}
	s.typing = false
	st := userState(s.user, s.currentFile, false)
	h.broadcastLocked(Frame{Type: FramePresence, User: &st}, s)
}

// persist is the debouncer sink. The uuid.Nil key addresses the project's
// legacy code blob.
func (h *Hub) persist(key uuid.UUID, content string) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if key == legacyBlob {
		err = h.store.SaveProjectCode(ctx, h.projectID, content)
	} else {
		err = h.store.SaveFileContent(ctx, key, content)
	}
	if err != nil {
		h.log.Error("debounced persist failed",
			zap.Stringer("project", h.projectID),
			zap.Stringer("file", key),
			zap.Error(err),
		)
	}
}

func contentHash(content string) uint64 {
	f := fnv.New64a()
	_, _ = f.Write([]byte(content))
	return f.Sum64()
}
