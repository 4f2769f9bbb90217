package handlers

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"invoicedesk/cache"
	"invoicedesk/services"
)

// DefaultEditorSessionTTL is how long an idle editor session is kept.
const DefaultEditorSessionTTL = 2 * time.Hour

// EditorSession is one open template editor. Operations on the state are
// serialized through the session mutex.
type EditorSession struct {
	ID       string
	AgencyID string

	mu    sync.Mutex
	state *services.EditorState
}

// Do runs fn with exclusive access to the editor state.
func (s *EditorSession) Do(fn func(*services.EditorState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// EditorSessions keeps open editor sessions in memory, keyed by id.
type EditorSessions struct {
	cache *cache.TTLCache[string, *EditorSession]
	ttl   time.Duration
}

func NewEditorSessions(ttl time.Duration) *EditorSessions {
	if ttl <= 0 {
		ttl = DefaultEditorSessionTTL
	}
	return &EditorSessions{cache: cache.NewTTLCache[string, *EditorSession](), ttl: ttl}
}

// Open starts a session for agencyID editing state.
func (s *EditorSessions) Open(agencyID string, state *services.EditorState) *EditorSession {
	sess := &EditorSession{ID: uuid.NewString(), AgencyID: agencyID, state: state}
	s.cache.Set(sess.ID, sess, s.ttl)
	return sess
}

// Get returns the live session id of agencyID and extends its lifetime.
func (s *EditorSessions) Get(agencyID, id string) (*EditorSession, error) {
	sess, ok := s.cache.Get(id)
	if !ok || sess.AgencyID != agencyID {
		return nil, fmt.Errorf("editor session %q: %w", id, services.ErrNotFound)
	}
	s.cache.Touch(id, s.ttl)
	return sess, nil
}

func (s *EditorSessions) Close(id string) {
	s.cache.Delete(id)
}

// Purge drops expired sessions and returns how many were removed.
func (s *EditorSessions) Purge() int {
	return s.cache.Purge()
}
