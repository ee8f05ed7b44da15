// Package records keeps the records of the last patient the user looked up.
package records

import (
	"sync"

	"github.com/ethereum/go-ethereum/event"

	cbcommon "github.com/tranvictor/carebook/common"
)

// Change is published every time the store content is replaced or cleared.
type Change struct {
	PatientID int64
	Records   []cbcommon.Record
	Cleared   bool
}

// Store holds the result of the most recent successful fetch. Content is
// only ever replaced as a whole.
type Store struct {
	mu        sync.RWMutex
	patientID int64
	records   []cbcommon.Record
	loaded    bool

	feed event.Feed
}

func NewStore() *Store {
	return &Store{patientID: -1}
}

func (s *Store) Replace(patientID int64, records []cbcommon.Record) {
	snapshot := make([]cbcommon.Record, len(records))
	copy(snapshot, records)

	s.mu.Lock()
	s.patientID = patientID
	s.records = snapshot
	s.loaded = true
	s.mu.Unlock()

	published := make([]cbcommon.Record, len(snapshot))
	copy(published, snapshot)
	s.feed.Send(Change{PatientID: patientID, Records: published})
}

func (s *Store) Clear() {
	s.mu.Lock()
	s.patientID = -1
	s.records = nil
	s.loaded = false
	s.mu.Unlock()

	s.feed.Send(Change{PatientID: -1, Cleared: true})
}

// Records returns a copy of the stored records.
func (s *Store) Records() []cbcommon.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]cbcommon.Record, len(s.records))
	copy(result, s.records)
	return result
}

// PatientID returns the id the records belong to, or -1 when the store is
// empty.
func (s *Store) PatientID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patientID
}

// Loaded reports whether the store holds the result of a fetch, which may
// be an empty list.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) SubscribeChanges(ch chan<- Change) event.Subscription {
	return s.feed.Subscribe(ch)
}
