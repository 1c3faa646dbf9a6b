package memory

import (
	"time"

	"chat-relay-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

// SessionRepository holds the in-memory UI session mirrors, keyed by the raw
// bearer token. Entries expire together with the backing auth token so a
// stale mirror can never outlive its session.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(session *store.Session) {
	r.cache.Set(session.Token, session, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(token string) (*store.Session, bool) {
	if x, found := r.cache.Get(token); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(token string) {
	r.cache.Delete(token)
}
