package session

import "sync"

// Storage keys used by the token store. The persistent keys mirror the
// browser localStorage entries the web client writes; the volatile keys
// mirror its sessionStorage entries, which only live for the duration of a
// single tab session.
const (
	KeyAccessToken  = "access_token"
	KeyIDToken      = "id_token"
	KeyRefreshToken = "refresh_token"

	KeyPendingCode       = "auth_code_pending"
	KeyExchangeAttempted = "exchangeAttempted"
)

// Storage is a minimal synchronous key/value store. Implementations must be
// safe for concurrent use; none of the operations perform any I/O beyond
// the storage itself.
type Storage interface {
	Get(key string) string
	Set(key string, value string)
	Delete(key string)
}

// MemoryStorage keeps values in a mutex-guarded map. Tokens are held in
// memory only and must never be logged.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (s *MemoryStorage) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

func (s *MemoryStorage) Set(key string, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *MemoryStorage) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
