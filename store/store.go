package store

import (
	"reflect"
	"sync"

	"github.com/skiffchat/skiff"
)

// Store serializes event dispatch over a State. Mutations happen one at
// a time; readers get a snapshot value whose maps are shared but never
// written again, so holding one across dispatches is safe.
type Store struct {
	mu       sync.RWMutex
	state    State
	onChange []func(State)
}

// New returns an empty store.
func New() *Store {
	return &Store{state: NewState()}
}

// NewFromState seeds a store, used when replaying a cold-start cache.
func NewFromState(s State) *Store {
	return &Store{state: s}
}

// Dispatch reduces the events in order and notifies subscribers once if
// anything changed.
func (s *Store) Dispatch(events ...skiff.Event) {
	s.mu.Lock()
	before := s.state
	next := before
	for _, ev := range events {
		next = Reduce(next, ev)
	}
	s.state = next
	subs := s.onChange
	s.mu.Unlock()

	if !changed(before, next) {
		return
	}
	for _, fn := range subs {
		fn(next)
	}
}

// State returns the current snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers a listener invoked after any dispatch that
// changed state. Listeners run on the dispatching goroutine.
func (s *Store) Subscribe(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// changed compares the two snapshots by map identity. Reducers only
// swap a map when its contents changed, so pointer comparison is exact.
func changed(a, b State) bool {
	return a.Entities.CurrentUserID != b.Entities.CurrentUserID ||
		a.Entities.CurrentChannelID != b.Entities.CurrentChannelID ||
		a.Entities.CloseUnusedDirectMessages != b.Entities.CloseUnusedDirectMessages ||
		!sameRef(a.Entities.Users, b.Entities.Users) ||
		!sameRef(a.Entities.ChannelsByTeam, b.Entities.ChannelsByTeam) ||
		!sameRef(a.Entities.Members, b.Entities.Members) ||
		!sameRef(a.Entities.UserIDsByChannel, b.Entities.UserIDsByChannel) ||
		!sameRef(a.Entities.Preferences, b.Entities.Preferences) ||
		!sameRef(a.Entities.LastPostAt, b.Entities.LastPostAt) ||
		!sameRef(a.Categories.ByID, b.Categories.ByID) ||
		!sameRef(a.Categories.OrderByTeam, b.Categories.OrderByTeam)
}

func sameRef(a, b interface{}) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
