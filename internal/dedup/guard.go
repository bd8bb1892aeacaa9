// Package dedup debounces repeated identical create submissions per actor.
package dedup

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultWindow is how long an identical resubmission is rejected.
const DefaultWindow = 5 * time.Second

// Submission is the normalized view of a create request used for
// fingerprinting. Multi-valued fields are sorted and strings trimmed before
// hashing so reordering or whitespace noise never yields a fresh
// fingerprint.
type Submission struct {
	Title       string
	Detail      string
	DueDate     string
	Priority    string
	Status      string
	CategoryID  int64
	GroupIDs    []int64
	Attachments []string
}

// Fingerprint returns a stable FNV-1a hash of the normalized submission.
func (s Submission) Fingerprint() uint64 {
	groupIDs := append([]int64(nil), s.GroupIDs...)
	sort.Slice(groupIDs, func(i, j int) bool { return groupIDs[i] < groupIDs[j] })
	attachments := append([]string(nil), s.Attachments...)
	sort.Strings(attachments)

	h := fnv.New64a()
	writeString := func(v string) {
		h.Write([]byte(strings.TrimSpace(v)))
		h.Write([]byte{0})
	}
	writeInt := func(v int64) {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}

	writeString(s.Title)
	writeString(s.Detail)
	writeString(s.DueDate)
	writeString(s.Priority)
	writeString(s.Status)
	writeInt(s.CategoryID)
	writeInt(int64(len(groupIDs)))
	for _, id := range groupIDs {
		writeInt(id)
	}
	for _, name := range attachments {
		writeString(name)
	}
	return h.Sum64()
}

type record struct {
	fingerprint uint64
	at          time.Time
}

// Guard keeps the most recent submission per actor and rejects an identical
// one inside the window. The map is process-local and never evicted: one
// slot per actor, bounded by the user population, accepted for a
// single-process deployment. It is a double-click debounce, not a durable
// idempotency key.
type Guard struct {
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	recent map[int64]record
}

// New creates a Guard. A non-positive window falls back to DefaultWindow.
func New(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		window: window,
		now:    time.Now,
		recent: make(map[int64]record),
	}
}

// IsDuplicate atomically checks the actor's slot and records the new
// fingerprint. Check and record happen under one lock so two concurrent
// identical requests from the same actor cannot both pass.
func (g *Guard) IsDuplicate(actorID int64, fingerprint uint64) bool {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	previous, ok := g.recent[actorID]
	if ok && previous.fingerprint == fingerprint && now.Sub(previous.at) <= g.window {
		return true
	}
	g.recent[actorID] = record{fingerprint: fingerprint, at: now}
	return false
}
