package memory

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// SessionState is the transient per-session runtime state. A pending turn is
// the optimistic "question sent, answer not yet received" marker: it exists
// only here, never in the store, and is cleared when the LLM call settles
// either way.
type SessionState struct {
	PendingMessage string
	PendingSince   time.Time
}

type SessionStateRepository struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewSessionStateRepository() *SessionStateRepository {
	// Default expiration of 1 hour with purge every 10 minutes; an abandoned
	// pending marker disappears on its own instead of wedging the session.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionStateRepository{
		cache: c,
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock returns the mutex serializing mutating operations for one session id.
// Different sessions never contend.
func (r *SessionStateRepository) Lock(sessionID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[sessionID]; ok {
		return l
	}
	l := &sync.Mutex{}
	r.locks[sessionID] = l
	return l
}

func (r *SessionStateRepository) SetPending(sessionID, message string) {
	r.cache.Set(sessionID, &SessionState{
		PendingMessage: message,
		PendingSince:   time.Now(),
	}, cache.DefaultExpiration)
}

func (r *SessionStateRepository) GetPending(sessionID string) (*SessionState, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*SessionState), true
	}
	return nil, false
}

func (r *SessionStateRepository) ClearPending(sessionID string) {
	r.cache.Delete(sessionID)
}

// Forget drops all runtime state for a session, used on reset.
func (r *SessionStateRepository) Forget(sessionID string) {
	r.cache.Delete(sessionID)
	r.mu.Lock()
	delete(r.locks, sessionID)
	r.mu.Unlock()
}
