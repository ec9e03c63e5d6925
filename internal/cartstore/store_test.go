package cartstore

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-gateway/internal/auth"
	"storefront-gateway/internal/backend"
	"storefront-gateway/internal/domain"
)

// fakeBackend simulates the remote cart service: one line per variant,
// adds merge into the existing line, updates set the quantity.
type fakeBackend struct {
	mu    sync.Mutex
	lines []domain.CartLine

	listCalls   int
	addCalls    int
	updateCalls int
	removeCalls int

	listErr   error
	addErr    error
	updateErr error
	removeErr error

	listGate chan struct{} // when set, ListCart blocks until a receive
}

func (f *fakeBackend) ListCart(_ context.Context, token string) ([]domain.CartLine, error) {
	if token == "" {
		return nil, domain.ErrNoSession
	}
	f.mu.Lock()
	f.listCalls++
	gate := f.listGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.CartLine, len(f.lines))
	copy(out, f.lines)
	return out, nil
}

func (f *fakeBackend) AddCartItem(_ context.Context, token, variantID string, quantity int) error {
	if token == "" {
		return domain.ErrNoSession
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addCalls++
	if f.addErr != nil {
		return f.addErr
	}
	for i := range f.lines {
		if f.lines[i].VariantID == variantID {
			f.lines[i].Quantity += quantity
			return nil
		}
	}
	f.lines = append(f.lines, domain.CartLine{
		CartID:        gofakeit.UUID(),
		VariantID:     variantID,
		ProductID:     gofakeit.UUID(),
		ProductName:   gofakeit.ProductName(),
		CurrentPrice:  decimal.NewFromInt(int64(gofakeit.Number(1, 500))),
		Quantity:      quantity,
		StockQuantity: 99,
	})
	return nil
}

func (f *fakeBackend) UpdateCartItem(_ context.Context, token, variantID string, quantity int) error {
	if token == "" {
		return domain.ErrNoSession
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateCalls++
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.lines {
		if f.lines[i].VariantID == variantID {
			f.lines[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBackend) RemoveCartItem(_ context.Context, token, variantID string) error {
	if token == "" {
		return domain.ErrNoSession
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeCalls++
	if f.removeErr != nil {
		return f.removeErr
	}
	for i := range f.lines {
		if f.lines[i].VariantID == variantID {
			f.lines = append(f.lines[:i], f.lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeBackend) listed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, msg)
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errors = append(n.errors, msg)
}

func (n *recordingNotifier) lastError() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.errors) == 0 {
		return ""
	}
	return n.errors[len(n.errors)-1]
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func newTestStore(t *testing.T, fb *fakeBackend, token string) (*Store, *auth.Store, *recordingNotifier) {
	t.Helper()
	session := auth.NewStore()
	if token != "" {
		session.SetSession(token, domain.Customer{ID: "cust-1"})
	}
	notifier := &recordingNotifier{}
	store, stop := New(context.Background(), fb, session, notifier, discardLogger())
	t.Cleanup(stop)
	return store, session, notifier
}

func TestFetchCartUnauthenticated(t *testing.T) {
	fb := &fakeBackend{}
	store, _, _ := newTestStore(t, fb, "")

	store.FetchCart(context.Background())

	snap := store.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.True(t, snap.IsLoaded)
	assert.Equal(t, 0, fb.listed(), "unauthenticated fetch must not hit the network")
}

func TestEagerFetchOnRestoredSession(t *testing.T) {
	fb := &fakeBackend{}
	store, _, _ := newTestStore(t, fb, "tok")

	assert.Equal(t, 1, fb.listed())
	assert.True(t, store.Snapshot().IsLoaded)
}

func TestLoginTriggersFetchLogoutResetsLocally(t *testing.T) {
	fb := &fakeBackend{}
	store, session, _ := newTestStore(t, fb, "")
	require.Equal(t, 0, fb.listed())

	session.SetSession("tok", domain.Customer{ID: "cust-1"})
	assert.Equal(t, 1, fb.listed(), "login transition triggers a fetch")

	store.AddToCart(context.Background(), "v1", 2)
	require.NotEmpty(t, store.Snapshot().Lines)
	listedBefore := fb.listed()

	session.Clear()
	snap := store.Snapshot()
	assert.Empty(t, snap.Lines, "logout must not leak the departing cart")
	assert.True(t, snap.IsLoaded)
	assert.Equal(t, listedBefore, fb.listed(), "logout reset makes no network call")
}

func TestMutationSequenceOneLinePerVariant(t *testing.T) {
	fb := &fakeBackend{}
	store, _, _ := newTestStore(t, fb, "tok")
	ctx := context.Background()

	store.AddToCart(ctx, "v5", 2)
	store.AddToCart(ctx, "v7", 1)
	store.AddToCart(ctx, "v5", 1) // merges server-side
	store.UpdateQuantity(ctx, "v7", 4)

	snap := store.Snapshot()
	require.Len(t, snap.Lines, 2)

	byVariant := map[string]domain.CartLine{}
	for _, l := range snap.Lines {
		byVariant[l.VariantID] = l
		assert.True(t, l.Selected, "every fetched line starts selected")
	}
	assert.Equal(t, 3, byVariant["v5"].Quantity)
	assert.Equal(t, 4, byVariant["v7"].Quantity)
}

func TestUpdateQuantityZeroRoutesToRemoval(t *testing.T) {
	for _, qty := range []int{0, -1} {
		fb := &fakeBackend{}
		store, _, _ := newTestStore(t, fb, "tok")
		ctx := context.Background()

		store.AddToCart(ctx, "v5", 2)
		store.UpdateQuantity(ctx, "v5", qty)

		assert.Equal(t, 0, fb.updateCalls, "qty %d must never become a PUT", qty)
		assert.Equal(t, 1, fb.removeCalls)
		assert.Empty(t, store.Snapshot().Lines)
	}
}

func TestRemoveAndUpdateToZeroAgree(t *testing.T) {
	ctx := context.Background()

	fb1 := &fakeBackend{}
	s1, _, _ := newTestStore(t, fb1, "tok")
	s1.AddToCart(ctx, "v5", 2)
	s1.UpdateQuantity(ctx, "v5", 0)

	fb2 := &fakeBackend{}
	s2, _, _ := newTestStore(t, fb2, "tok")
	s2.AddToCart(ctx, "v5", 2)
	s2.RemoveFromCart(ctx, "v5")

	assert.Equal(t, s1.Snapshot().Lines, s2.Snapshot().Lines)
	assert.Empty(t, s1.Snapshot().Lines)
}

func TestTotalsScenario(t *testing.T) {
	fb := &fakeBackend{lines: []domain.CartLine{
		{VariantID: "5", Quantity: 2, CurrentPrice: decimal.NewFromInt(100)},
		{VariantID: "7", Quantity: 1, CurrentPrice: decimal.NewFromInt(50)},
	}}
	store, _, _ := newTestStore(t, fb, "tok")

	store.ToggleSelected("7")

	assert.True(t, store.TotalPrice().Equal(decimal.NewFromInt(200)), "deselected line excluded from total, got %s", store.TotalPrice())
	assert.Equal(t, 3, store.TotalItemsInCart(), "badge counts all lines regardless of selection")
	assert.Equal(t, 1, store.SelectedCount())

	// Toggling back changes the total by exactly that line's total.
	store.ToggleSelected("7")
	assert.True(t, store.TotalPrice().Equal(decimal.NewFromInt(250)))
}

func TestSelectAllDeselectAll(t *testing.T) {
	fb := &fakeBackend{}
	store, _, _ := newTestStore(t, fb, "tok")
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		store.AddToCart(ctx, gofakeit.UUID(), gofakeit.Number(1, 5))
	}

	store.DeselectAll()
	assert.Equal(t, 0, store.SelectedCount())

	store.SelectAll()
	assert.Equal(t, len(store.Snapshot().Lines), store.SelectedCount())
}

func TestAddFailureLeavesStateAndNotifies(t *testing.T) {
	fb := &fakeBackend{}
	store, _, notifier := newTestStore(t, fb, "tok")
	ctx := context.Background()

	store.AddToCart(ctx, "v1", 1)
	listedBefore := fb.listed()

	fb.addErr = &backend.APIError{StatusCode: 409, Message: "not enough stock"}
	store.AddToCart(ctx, "v2", 5)

	assert.Equal(t, "not enough stock", notifier.lastError(), "server message propagates verbatim")
	assert.Equal(t, listedBefore, fb.listed(), "failed add does not refetch")
	assert.Len(t, store.Snapshot().Lines, 1)
}

func TestUpdateFailureStillRefetches(t *testing.T) {
	fb := &fakeBackend{}
	store, _, notifier := newTestStore(t, fb, "tok")
	ctx := context.Background()

	store.AddToCart(ctx, "v1", 1)
	listedBefore := fb.listed()

	fb.updateErr = &backend.APIError{StatusCode: 409, Message: "stock changed"}
	store.UpdateQuantity(ctx, "v1", 3)

	assert.Equal(t, "stock changed", notifier.lastError())
	assert.Equal(t, listedBefore+1, fb.listed(), "failed update refetches to roll back stale state")
}

func TestRemoveFailureNotifiesOnly(t *testing.T) {
	fb := &fakeBackend{}
	store, _, notifier := newTestStore(t, fb, "tok")
	ctx := context.Background()

	store.AddToCart(ctx, "v1", 1)
	listedBefore := fb.listed()

	fb.removeErr = &backend.APIError{StatusCode: 500, Message: "boom"}
	store.RemoveFromCart(ctx, "v1")

	assert.Equal(t, "boom", notifier.lastError())
	assert.Equal(t, listedBefore, fb.listed())
	assert.Len(t, store.Snapshot().Lines, 1)
}

func TestMutationWithoutSessionFailsLocally(t *testing.T) {
	fb := &fakeBackend{}
	store, _, notifier := newTestStore(t, fb, "")

	store.AddToCart(context.Background(), "v1", 1)

	assert.Equal(t, noSessionMessage, notifier.lastError())
	assert.Equal(t, 0, fb.addCalls)
	assert.Equal(t, 0, fb.listed())
}

func TestFetchFailureDegradesToEmptyCart(t *testing.T) {
	fb := &fakeBackend{lines: []domain.CartLine{{VariantID: "v1", Quantity: 1}}}
	store, _, notifier := newTestStore(t, fb, "tok")
	require.Len(t, store.Snapshot().Lines, 1)

	fb.mu.Lock()
	fb.listErr = &backend.APIError{StatusCode: 500, Message: "db down"}
	fb.mu.Unlock()
	store.FetchCart(context.Background())

	snap := store.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.True(t, snap.IsLoaded)
	assert.Empty(t, notifier.errors, "background sync failures never notify")
}

func TestClearCartIsLocalOnly(t *testing.T) {
	fb := &fakeBackend{}
	store, _, notifier := newTestStore(t, fb, "tok")
	ctx := context.Background()

	store.AddToCart(ctx, "v1", 2)
	addCallsBefore := fb.addCalls
	removeCallsBefore := fb.removeCalls

	store.ClearCart()

	assert.Empty(t, store.Snapshot().Lines)
	assert.Equal(t, addCallsBefore, fb.addCalls)
	assert.Equal(t, removeCallsBefore, fb.removeCalls)
	assert.NotEmpty(t, notifier.successes)

	// The server cart survives: the next fetch reinstates it.
	store.FetchCart(ctx)
	assert.Len(t, store.Snapshot().Lines, 1)
}

func TestStaleFetchCannotClobberLogoutReset(t *testing.T) {
	fb := &fakeBackend{lines: []domain.CartLine{{VariantID: "v1", Quantity: 1}}}
	store, session, _ := newTestStore(t, fb, "")

	gate := make(chan struct{})
	fb.mu.Lock()
	fb.listGate = gate
	fb.mu.Unlock()

	done := make(chan struct{})
	go func() {
		session.SetSession("tok", domain.Customer{ID: "cust-1"})
		close(done)
	}()

	// Wait for the login-triggered fetch to be in flight, then log out
	// underneath it before letting it resolve.
	require.Eventually(t, func() bool { return fb.listed() == 1 }, time.Second, time.Millisecond)
	session.Clear()
	gate <- struct{}{}
	<-done

	snap := store.Snapshot()
	assert.Empty(t, snap.Lines, "in-flight fetch from before logout must be discarded")
	assert.True(t, snap.IsLoaded)
}

func TestSubscribersObserveChanges(t *testing.T) {
	fb := &fakeBackend{}
	store, _, _ := newTestStore(t, fb, "tok")

	var mu sync.Mutex
	var seen []Snapshot
	unsub := store.Subscribe(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	store.AddToCart(context.Background(), "v1", 1)

	mu.Lock()
	count := len(seen)
	final := seen[count-1]
	mu.Unlock()
	require.NotZero(t, count)
	assert.Len(t, final.Lines, 1)
	assert.False(t, final.IsMutating, "busy flag cleared after the mutation settles")

	unsub()
	store.SelectAll()
	mu.Lock()
	assert.Equal(t, count, len(seen), "unsubscribed observers stay silent")
	mu.Unlock()
}
