// Package capture holds the request source: a bounded in-memory store of
// captured request records, loaders for capture files, and a file watcher
// that reloads the store when a capture file changes.
package capture

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/charliek/netscope/internal/domain"
)

// Subscription receives a full snapshot every time the store changes.
// Only the most recent snapshot is kept if the subscriber falls behind.
type Subscription struct {
	ID string
	Ch chan []domain.RequestRecord
}

// Store tracks captured requests in a ring buffer and notifies subscribers of changes.
type Store struct {
	mu       sync.RWMutex
	buffer   []domain.RequestRecord
	head     int
	count    int
	capacity int
	index    map[string]int

	subMu  sync.Mutex
	subs   map[string]*Subscription
	nextID int
}

// NewStore creates a new store with the specified buffer capacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = 1
	}
	return &Store{
		buffer:   make([]domain.RequestRecord, capacity),
		capacity: capacity,
		index:    make(map[string]int),
		subs:     make(map[string]*Subscription),
	}
}

// Record adds a request to the store and notifies subscribers.
// If the record doesn't have an ID, one is generated. The stored record is returned.
func (s *Store) Record(record domain.RequestRecord) domain.RequestRecord {
	s.mu.Lock()
	record = s.insert(record)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return record
}

// RecordAll adds several requests with a single notification.
func (s *Store) RecordAll(records []domain.RequestRecord) []domain.RequestRecord {
	stored := make([]domain.RequestRecord, 0, len(records))

	s.mu.Lock()
	for _, r := range records {
		stored = append(stored, s.insert(r))
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return stored
}

// Replace swaps the whole contents of the store for records.
// When records exceeds the capacity only the newest are kept.
func (s *Store) Replace(records []domain.RequestRecord) {
	s.mu.Lock()
	s.resetLocked()
	start := 0
	if len(records) > s.capacity {
		start = len(records) - s.capacity
	}
	for _, r := range records[start:] {
		s.insert(r)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Clear removes all requests.
func (s *Store) Clear() {
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()

	s.notify([]domain.RequestRecord{})
}

// Snapshot returns all stored requests, oldest first.
func (s *Store) Snapshot() []domain.RequestRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get returns the request with the given ID.
func (s *Store) Get(id string) (domain.RequestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return domain.RequestRecord{}, fmt.Errorf("%w: %s", domain.ErrRequestNotFound, id)
	}
	return s.buffer[idx], nil
}

// Count returns the number of requests currently in the store.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Capacity returns the maximum number of requests kept.
func (s *Store) Capacity() int {
	return s.capacity
}

// Subscribe creates a subscription for snapshot updates.
func (s *Store) Subscribe() *Subscription {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextID++
	sub := &Subscription{
		ID: fmt.Sprintf("sub-%d", s.nextID),
		Ch: make(chan []domain.RequestRecord, 1),
	}
	s.subs[sub.ID] = sub

	return sub
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (s *Store) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if sub, ok := s.subs[id]; ok {
		close(sub.Ch)
		delete(s.subs, id)
	}
}

// SubscriberCount returns the number of active subscriptions.
func (s *Store) SubscriberCount() int {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	return len(s.subs)
}

// Close closes all subscription channels.
func (s *Store) Close() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for id, sub := range s.subs {
		close(sub.Ch)
		delete(s.subs, id)
	}
}

// insert must be called with mu held.
func (s *Store) insert(record domain.RequestRecord) domain.RequestRecord {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	// A re-recorded ID replaces the earlier entry in place
	if idx, ok := s.index[record.ID]; ok {
		s.buffer[idx] = record
		return record
	}

	if s.count == s.capacity {
		evicted := s.buffer[s.head]
		delete(s.index, evicted.ID)
	}

	s.buffer[s.head] = record
	s.index[record.ID] = s.head
	s.head = (s.head + 1) % s.capacity
	if s.count < s.capacity {
		s.count++
	}
	return record
}

func (s *Store) resetLocked() {
	s.buffer = make([]domain.RequestRecord, s.capacity)
	s.index = make(map[string]int)
	s.head = 0
	s.count = 0
}

func (s *Store) snapshotLocked() []domain.RequestRecord {
	result := make([]domain.RequestRecord, 0, s.count)
	start := (s.head - s.count + s.capacity) % s.capacity
	for i := 0; i < s.count; i++ {
		result = append(result, s.buffer[(start+i)%s.capacity])
	}
	return result
}

func (s *Store) notify(snap []domain.RequestRecord) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, sub := range s.subs {
		select {
		case sub.Ch <- snap:
			continue
		default:
		}
		// Subscriber is behind: drop the stale snapshot and keep the latest
		select {
		case <-sub.Ch:
		default:
		}
		select {
		case sub.Ch <- snap:
		default:
		}
	}
}
