package ticket

import (
	"sync"
)

// Session holds the progress of one user's ticket collection.
// Index points at the next unanswered field; answers are keyed by
// field key and a FileSet answer accumulates until its terminator.
type Session struct {
	Index   int
	answers map[string][]string
}

func newSession() *Session {
	return &Session{answers: make(map[string][]string)}
}

// SetAnswer records a completed single-value answer.
func (s *Session) SetAnswer(key, value string) {
	s.answers[key] = []string{value}
}

// AppendFile adds one file reference to a FileSet answer in progress.
func (s *Session) AppendFile(key, ref string) {
	s.answers[key] = append(s.answers[key], ref)
}

// Answer returns the collected values for a field key.
func (s *Session) Answer(key string) []string {
	return s.answers[key]
}

// FileCount reports how many files were collected for a key.
func (s *Session) FileCount(key string) int {
	return len(s.answers[key])
}

// Answers returns a copy of all collected answers.
func (s *Session) Answers() map[string][]string {
	out := make(map[string][]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = append([]string(nil), v...)
	}
	return out
}

const lockStripes = 64

// Store keeps in-memory sessions keyed by Telegram user ID.
// Lock serializes all processing for a given user: handlers run in
// goroutines, and per-user updates must be applied one at a time.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
	stripes  [lockStripes]sync.Mutex
}

// NewStore builds an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Lock acquires the per-user stripe lock and returns its release func.
func (st *Store) Lock(userID int64) func() {
	idx := uint64(userID) % lockStripes
	st.stripes[idx].Lock()
	return st.stripes[idx].Unlock
}

// Create starts a fresh session for the user, replacing any previous one.
func (st *Store) Create(userID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := newSession()
	st.sessions[userID] = s
	return s
}

// Get returns the user's session, or nil if none is open.
func (st *Store) Get(userID int64) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[userID]
}

// Clear removes the user's session.
func (st *Store) Clear(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
}

// Active reports whether the user has an open session.
func (st *Store) Active(userID int64) bool {
	return st.Get(userID) != nil
}
