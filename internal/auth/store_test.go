package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"storefront-gateway/internal/domain"
)

func TestTransitionsNotifySubscribers(t *testing.T) {
	s := NewStore()

	var seen []State
	unsub := s.Subscribe(func(st State) {
		seen = append(seen, st)
	})

	s.SetSession("tok", domain.Customer{ID: "c1", Email: "a@b.com"})
	s.Clear()

	assert.Len(t, seen, 2)
	assert.True(t, seen[0].Authenticated())
	assert.Equal(t, "tok", seen[0].Token)
	assert.False(t, seen[1].Authenticated())

	unsub()
	s.SetSession("tok2", domain.Customer{})
	assert.Len(t, seen, 2, "unsubscribed callbacks must not fire")
}

func TestCurrentReflectsLatestTransition(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Current().Authenticated())
	assert.Empty(t, s.Token())

	s.SetSession("tok", domain.Customer{ID: "c1"})
	assert.Equal(t, "tok", s.Token())
	assert.Equal(t, "c1", s.Current().Customer.ID)

	s.Clear()
	assert.Empty(t, s.Token())
	assert.Empty(t, s.Current().Customer.ID)
}

func TestSubscriberMayReadStoreDuringCallback(t *testing.T) {
	s := NewStore()
	var observed string
	s.Subscribe(func(State) {
		observed = s.Token()
	})
	s.SetSession("tok", domain.Customer{})
	assert.Equal(t, "tok", observed)
}
