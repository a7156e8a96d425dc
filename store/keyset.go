package store

import (
	"sync"
	"time"

	"github.com/dnldd/spike/shared"
)

// KeySet represents an in-memory set of alerted candles. Keys are never evicted, the set
// lives for the lifetime of the process.
type KeySet struct {
	keys    map[shared.DedupKey]time.Time
	keysMtx sync.RWMutex
}

// Ensure the KeySet implements the KeyStore interface.
var _ shared.KeyStore = (*KeySet)(nil)

// NewKeySet initializes a new key set.
func NewKeySet() *KeySet {
	return &KeySet{
		keys: make(map[shared.DedupKey]time.Time),
	}
}

// Seen checks whether the provided key has been marked.
func (s *KeySet) Seen(key shared.DedupKey) bool {
	s.keysMtx.RLock()
	defer s.keysMtx.RUnlock()

	_, ok := s.keys[key]
	return ok
}

// Mark records the provided key along with the time it was detected. Marking an existing
// key keeps the original detection time.
func (s *KeySet) Mark(key shared.DedupKey, at time.Time) {
	s.keysMtx.Lock()
	defer s.keysMtx.Unlock()

	if _, ok := s.keys[key]; ok {
		return
	}

	s.keys[key] = at
}

// DetectedAt returns the detection time of the provided key.
func (s *KeySet) DetectedAt(key shared.DedupKey) (time.Time, bool) {
	s.keysMtx.RLock()
	defer s.keysMtx.RUnlock()

	at, ok := s.keys[key]
	return at, ok
}

// Len returns the number of marked keys.
func (s *KeySet) Len() int {
	s.keysMtx.RLock()
	defer s.keysMtx.RUnlock()

	return len(s.keys)
}
