package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultDedupTTL bounds how long a fingerprint suppresses resubmission.
const DefaultDedupTTL = 5000 * time.Millisecond

// Fingerprint derives the duplicate-suppression key for a logical
// message. The timestamp is bucketed to whole seconds, so retries and
// multi-tab races that re-submit the same envelope collapse to one key
// while a genuine identical message sent later does not.
func Fingerprint(senderID, target, content string, ts time.Time) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d", senderID, target, content, ts.Unix())))
	return hex.EncodeToString(h[:])
}

// Suppressor is a time-bounded fingerprint cache. It is the fast path
// of the belt-and-suspenders duplicate guard; the store's uniqueness
// constraint is the authoritative one.
type Suppressor struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time // fingerprint -> insertion time
}

// NewSuppressor creates a suppressor with the given TTL. now may be nil,
// in which case the wall clock is used; tests inject their own.
func NewSuppressor(ttl time.Duration, now func() time.Time) *Suppressor {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Suppressor{
		ttl:     ttl,
		now:     now,
		entries: make(map[string]time.Time),
	}
}

// CheckAndInsert records fp and reports whether it was new. A false
// return means the same logical message was seen within the TTL and the
// caller must drop it without persisting or dispatching.
func (s *Suppressor) CheckAndInsert(fp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if at, ok := s.entries[fp]; ok && now.Sub(at) < s.ttl {
		return false
	}
	s.entries[fp] = now
	return true
}

// Release drops fp so a legitimate retry can proceed. Called when
// persistence fails after the fingerprint was inserted.
func (s *Suppressor) Release(fp string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, fp)
}

// Len reports the number of live entries, expired ones included until
// the next sweep.
func (s *Suppressor) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Suppressor) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for fp, at := range s.entries {
		if now.Sub(at) >= s.ttl {
			delete(s.entries, fp)
		}
	}
}

// Run sweeps expired entries until ctx is done. CheckAndInsert is
// correct without it; the sweep only bounds memory.
func (s *Suppressor) Run(ctx context.Context) {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}
