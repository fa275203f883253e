package service

import (
	"sync"

	"github.com/noah-isme/luckydraw-admin-api/pkg/query"
)

// RecordFeed orders concurrent history fetches for the same selection so the
// most recently issued fetch wins. A fetch that completes after a newer one
// gets the newer records back instead of its own.
type RecordFeed struct {
	mu         sync.Mutex
	entries    map[string]*feedEntry
	generation uint64
}

type feedEntry struct {
	issued    uint64
	inFlight  int
	completed uint64
	records   []query.Record
}

// NewRecordFeed constructs an empty feed.
func NewRecordFeed() *RecordFeed {
	return &RecordFeed{entries: make(map[string]*feedEntry)}
}

// Begin registers a fetch for key and returns its sequence number.
func (f *RecordFeed) Begin(key string) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok {
		e = &feedEntry{}
		f.entries[key] = e
	}
	e.issued++
	e.inFlight++
	return e.issued
}

// Complete publishes the records of fetch seq. It returns the records the
// caller should use and false when they came from a newer fetch.
func (f *RecordFeed) Complete(key string, seq uint64, records []query.Record) ([]query.Record, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[key]
	if !ok {
		return records, true
	}
	e.inFlight--
	fresh := seq > e.completed
	if fresh {
		e.completed = seq
		e.records = records
	}
	out := e.records
	f.release(key, e)
	return out, fresh
}

// Abandon marks fetch seq as failed.
func (f *RecordFeed) Abandon(key string, _ uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e, ok := f.entries[key]; ok {
		e.inFlight--
		f.release(key, e)
	}
}

// Generation returns the current invalidation generation. Records fetched
// under an older generation must not be cached.
func (f *RecordFeed) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation
}

// Invalidate starts a new generation.
func (f *RecordFeed) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
}

// InFlight reports the number of selections with an outstanding fetch.
func (f *RecordFeed) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func (f *RecordFeed) release(key string, e *feedEntry) {
	if e.inFlight <= 0 {
		delete(f.entries, key)
	}
}
