package auth

import (
	"sync"

	"storefront-gateway/internal/domain"
)

// State is a point-in-time view of the session: the bearer token and the
// customer it belongs to. A zero State means unauthenticated.
type State struct {
	Token    string
	Customer domain.Customer
}

// Authenticated reports whether a bearer token is present.
func (s State) Authenticated() bool {
	return s.Token != ""
}

// Unsubscriber removes a previously registered subscription.
type Unsubscriber func()

// Store holds the auth session for one browser session and notifies
// subscribers on every transition. Dependents (the cart store) subscribe
// here, so auth itself never depends on them.
type Store struct {
	mu     sync.Mutex
	state  State
	nextID int
	subs   map[int]func(State)
}

func NewStore() *Store {
	return &Store{subs: map[int]func(State){}}
}

// Current returns the session state.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Token returns the current bearer token, empty when unauthenticated.
func (s *Store) Token() string {
	return s.Current().Token
}

// SetSession records a login and notifies subscribers.
func (s *Store) SetSession(token string, customer domain.Customer) {
	s.transition(State{Token: token, Customer: customer})
}

// Clear records a logout and notifies subscribers.
func (s *Store) Clear() {
	s.transition(State{})
}

func (s *Store) transition(next State) {
	s.mu.Lock()
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	// Callbacks run outside the lock so a subscriber may read Current or
	// re-subscribe without deadlocking.
	for _, fn := range subs {
		fn(next)
	}
}

// Subscribe registers fn to run on every session transition and returns
// an unsubscriber. fn is not called with the current state at registration.
func (s *Store) Subscribe(fn func(State)) Unsubscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}
