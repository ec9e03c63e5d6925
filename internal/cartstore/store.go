package cartstore

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"storefront-gateway/internal/auth"
	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/domain"
)

// noSessionMessage is the fixed message for cart actions attempted without
// a session; those fail locally, before any request is made.
const noSessionMessage = "please sign in to manage your cart"

type backendClient interface {
	ListCart(ctx context.Context, token string) ([]domain.CartLine, error)
	AddCartItem(ctx context.Context, token, variantID string, quantity int) error
	UpdateCartItem(ctx context.Context, token, variantID string, quantity int) error
	RemoveCartItem(ctx context.Context, token, variantID string) error
}

type sessionSource interface {
	Token() string
	Subscribe(fn func(auth.State)) auth.Unsubscriber
}

// Notifier receives the user-visible outcome of explicit cart actions.
// Background synchronization never notifies.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Unsubscriber removes a previously registered subscription.
type Unsubscriber func()

// Snapshot is a point-in-time read of the store for view rendering.
type Snapshot struct {
	Lines      []domain.CartLine
	IsLoaded   bool
	IsMutating bool
}

// Store mirrors the backend cart for one session. It is the single writer
// of its state: views read snapshots and call the mutation methods, which
// relay to the backend and then refetch the authoritative list rather than
// trusting any locally assumed result.
//
// The store observes the auth session: login triggers a fetch, logout
// resets to an empty loaded cart without touching the network.
type Store struct {
	backend backendClient
	session sessionSource
	notify  Notifier
	logger  *log.Logger

	mu       sync.Mutex
	lines    []domain.CartLine
	loaded   bool
	inFlight int

	// fetchSeq numbers every fetch; appliedSeq is the newest result (or
	// local reset) applied so far. A slow fetch that loses the race is
	// discarded instead of overwriting fresher state.
	fetchSeq   uint64
	appliedSeq uint64

	nextSubID int
	subs      map[int]func(Snapshot)
}

// New builds a Store bound to a session. If the session is already
// authenticated (restored from a previous visit), the cart is fetched
// eagerly. The returned stop function detaches the auth subscription.
func New(ctx context.Context, bc backendClient, session sessionSource, notify Notifier, logger *log.Logger) (*Store, func()) {
	s := &Store{
		backend: bc,
		session: session,
		notify:  notify,
		logger:  logger,
		subs:    map[int]func(Snapshot){},
	}
	stop := session.Subscribe(func(st auth.State) {
		if st.Authenticated() {
			s.FetchCart(ctx)
			return
		}
		s.resetLocal()
	})
	if session.Token() != "" {
		s.FetchCart(ctx)
	}
	return s, stop
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	lines := make([]domain.CartLine, len(s.lines))
	copy(lines, s.lines)
	return Snapshot{Lines: lines, IsLoaded: s.loaded, IsMutating: s.inFlight > 0}
}

// Subscribe registers fn to run after every state change.
func (s *Store) Subscribe(fn func(Snapshot)) Unsubscriber {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// FetchCart reloads the cart from the backend, replacing local state
// wholesale with every line marked selected. Unauthenticated sessions get
// an empty loaded cart with no request made. Failures are logged, never
// surfaced: the cart degrades to empty rather than blocking the page.
func (s *Store) FetchCart(ctx context.Context) {
	token := s.session.Token()
	if token == "" {
		s.resetLocal()
		return
	}

	s.mu.Lock()
	s.fetchSeq++
	seq := s.fetchSeq
	s.mu.Unlock()

	lines, err := s.backend.ListCart(ctx, token)
	if err != nil {
		s.logger.Printf("fetch cart: %v", err)
		lines = nil
	}
	for i := range lines {
		lines[i].Selected = true
	}

	s.mu.Lock()
	if seq < s.appliedSeq {
		s.mu.Unlock()
		return
	}
	s.appliedSeq = seq
	s.lines = lines
	s.loaded = true
	s.mu.Unlock()
	s.publish()
}

// resetLocal empties the cart without a network call and invalidates any
// fetch still in flight, so a departing session cannot leak lines into
// the next anonymous view.
func (s *Store) resetLocal() {
	s.mu.Lock()
	s.fetchSeq++
	s.appliedSeq = s.fetchSeq
	s.lines = nil
	s.loaded = true
	s.mu.Unlock()
	s.publish()
}

func (s *Store) beginMutation() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
	s.publish()
}

func (s *Store) endMutation() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
	s.publish()
}

func (s *Store) errorMessage(err error) string {
	if errors.Is(err, domain.ErrNoSession) {
		return noSessionMessage
	}
	return backend.UserMessage(err)
}

// AddToCart adds quantity units of a variant. On success the cart is
// refetched; on failure local state is left untouched.
func (s *Store) AddToCart(ctx context.Context, variantID string, quantity int) {
	s.beginMutation()
	defer s.endMutation()

	if err := s.backend.AddCartItem(ctx, s.session.Token(), variantID, quantity); err != nil {
		s.notify.Error(s.errorMessage(err))
		return
	}
	s.notify.Success("added to cart")
	s.FetchCart(ctx)
}

// UpdateQuantity sets the quantity of a cart line. Driving the quantity to
// zero or below is a removal, never an update with a non-positive value.
// Unlike AddToCart, a failed update still refetches: the attempt may have
// left stock-derived fields stale, and the backend copy is authoritative.
func (s *Store) UpdateQuantity(ctx context.Context, variantID string, quantity int) {
	if quantity <= 0 {
		s.RemoveFromCart(ctx, variantID)
		return
	}

	s.beginMutation()
	defer s.endMutation()

	if err := s.backend.UpdateCartItem(ctx, s.session.Token(), variantID, quantity); err != nil {
		s.notify.Error(s.errorMessage(err))
		s.FetchCart(ctx)
		return
	}
	s.FetchCart(ctx)
}

// RemoveFromCart deletes the line for a variant.
func (s *Store) RemoveFromCart(ctx context.Context, variantID string) {
	s.beginMutation()
	defer s.endMutation()

	if err := s.backend.RemoveCartItem(ctx, s.session.Token(), variantID); err != nil {
		s.notify.Error(s.errorMessage(err))
		return
	}
	s.notify.Success("removed from cart")
	s.FetchCart(ctx)
}

// ToggleSelected flips the selection flag of one line. Selection is local
// only: it governs checkout totals and is never sent to the backend.
func (s *Store) ToggleSelected(variantID string) {
	s.mu.Lock()
	for i := range s.lines {
		if s.lines[i].VariantID == variantID {
			s.lines[i].Selected = !s.lines[i].Selected
			break
		}
	}
	s.mu.Unlock()
	s.publish()
}

// SelectAll marks every line selected.
func (s *Store) SelectAll() {
	s.setAll(true)
}

// DeselectAll marks every line unselected.
func (s *Store) DeselectAll() {
	s.setAll(false)
}

func (s *Store) setAll(selected bool) {
	s.mu.Lock()
	for i := range s.lines {
		s.lines[i].Selected = selected
	}
	s.mu.Unlock()
	s.publish()
}

// ClearCart resets the local cart without a backend call. The server cart
// survives and the next fetch reinstates it; kept as-is from the source
// behavior rather than silently adding a backend endpoint.
func (s *Store) ClearCart() {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()
	s.notify.Success("cart cleared")
	s.publish()
}

// TotalPrice sums CurrentPrice*Quantity over the selected lines.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, l := range s.lines {
		if l.Selected {
			total = total.Add(l.LineTotal())
		}
	}
	return total
}

// SelectedCount counts the selected lines.
func (s *Store) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		if l.Selected {
			n++
		}
	}
	return n
}

// TotalItemsInCart sums quantities over all lines regardless of selection,
// for the header badge.
func (s *Store) TotalItemsInCart() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}
