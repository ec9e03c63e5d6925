package session

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"storefront-gateway/internal/auth"
	"storefront-gateway/internal/cartstore"
	"storefront-gateway/internal/domain"
)

// Backend is the slice of the backend client the cart store needs.
type Backend interface {
	ListCart(ctx context.Context, token string) ([]domain.CartLine, error)
	AddCartItem(ctx context.Context, token, variantID string, quantity int) error
	UpdateCartItem(ctx context.Context, token, variantID string, quantity int) error
	RemoveCartItem(ctx context.Context, token, variantID string) error
}

// Entry bundles everything the gateway keeps for one browser session:
// the auth state, the cart store observing it, and the pending notices.
type Entry struct {
	ID    string
	Auth  *auth.Store
	Cart  *cartstore.Store
	Flash *FlashQueue

	stop func()
}

// Manager issues session IDs and owns the session ID -> Entry mapping.
// Entries are created lazily on first use and removed on logout.
type Manager struct {
	baseCtx context.Context
	backend Backend
	logger  *log.Logger

	mu      sync.Mutex
	entries map[string]*Entry
}

// NewManager builds a Manager. baseCtx bounds the fetches triggered by
// auth transitions, which outlive any single request.
func NewManager(baseCtx context.Context, backend Backend, logger *log.Logger) *Manager {
	return &Manager{
		baseCtx: baseCtx,
		backend: backend,
		logger:  logger,
		entries: map[string]*Entry{},
	}
}

// Get looks up an existing session.
func (m *Manager) Get(id string) (*Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	return e, ok
}

// GetOrCreate returns the session for id, creating a fresh one (with a new
// ID) when id is empty or unknown.
func (m *Manager) GetOrCreate(id string) *Entry {
	if id != "" {
		if e, ok := m.Get(id); ok {
			return e
		}
	}
	return m.create()
}

func (m *Manager) create() *Entry {
	authStore := auth.NewStore()
	flash := &FlashQueue{}
	cart, stop := cartstore.New(m.baseCtx, m.backend, authStore, flash, m.logger)

	e := &Entry{
		ID:    uuid.NewString(),
		Auth:  authStore,
		Cart:  cart,
		Flash: flash,
		stop:  stop,
	}

	m.mu.Lock()
	m.entries[e.ID] = e
	m.mu.Unlock()
	return e
}

// Drop clears the session's auth state (resetting its cart through the
// subscription) and forgets the entry.
func (m *Manager) Drop(id string) {
	m.mu.Lock()
	e, ok := m.entries[id]
	delete(m.entries, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	e.Auth.Clear()
	e.stop()
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
