package store

import (
	"sync"

	"inmuebles_console/internal/model"
)

// ListingStore keeps the live ordered property list for the dashboard. It is
// read-only for its consumers; writes go through the record orchestrator and
// arrive here via the document-store subscription. Snapshot delivery never
// blocks or interrupts an editor session in progress.
type ListingStore struct {
	mu     sync.RWMutex
	props  []model.Property
	loaded bool

	unsubscribe func()
	done        chan struct{}
}

func NewListingStore(ds DocumentStore) *ListingStore {
	l := &ListingStore{done: make(chan struct{})}

	ch, unsubscribe := ds.Subscribe()
	l.unsubscribe = unsubscribe

	go func() {
		defer close(l.done)
		for snapshot := range ch {
			l.mu.Lock()
			l.props = snapshot
			l.loaded = true
			l.mu.Unlock()
		}
	}()

	return l
}

// All returns the current snapshot, newest publication first.
func (l *ListingStore) All() []model.Property {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Property, len(l.props))
	copy(out, l.props)
	return out
}

// Get returns the property with the given id from the current snapshot.
func (l *ListingStore) Get(id string) (*model.Property, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.props {
		if l.props[i].ID == id {
			p := l.props[i]
			return &p, true
		}
	}
	return nil, false
}

// Loaded reports whether the first snapshot has arrived.
func (l *ListingStore) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Close detaches from the document store and waits for the consumer to stop.
func (l *ListingStore) Close() {
	l.unsubscribe()
	<-l.done
}
