package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	"tableside/internal/domain"
)

type fakeOrderAPI struct {
	mu      sync.Mutex
	orders  []domain.Order
	lists   int64
	patches int64
	status  int // patch response status, 0 means 200
	block   chan struct{}
	lastURL string
}

func (f *fakeOrderAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			atomic.AddInt64(&f.lists, 1)
			f.mu.Lock()
			f.lastURL = r.URL.String()
			page := domain.OrderPage{Orders: f.orders, Page: 1, PerPage: 20, Total: len(f.orders)}
			f.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(page)
		case http.MethodPatch:
			if f.block != nil {
				<-f.block
			}
			atomic.AddInt64(&f.patches, 1)
			if f.status != 0 {
				w.WriteHeader(f.status)
				return
			}
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func newTestBoard(t *testing.T, api *fakeOrderAPI) *Board {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return New(srv.URL, WithHTTPClient(srv.Client()), WithTokenSource(func() (string, bool) {
		return "tok", true
	}))
}

func TestActionsMatchTransitionTable(t *testing.T) {
	b := New("http://unused")
	cases := []struct {
		status domain.OrderStatus
		want   []domain.OrderStatus
	}{
		{domain.StatusPending, []domain.OrderStatus{domain.StatusInProgress, domain.StatusCancelled}},
		{domain.StatusInProgress, []domain.OrderStatus{domain.StatusServed, domain.StatusCancelled}},
		{domain.StatusServed, nil},
		{domain.StatusCancelled, nil},
	}
	for _, tc := range cases {
		got := b.Actions(domain.Order{Status: tc.status})
		if len(got) == 0 && len(tc.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("actions for %s = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestRefreshReplacesRenderModel(t *testing.T) {
	api := &fakeOrderAPI{orders: []domain.Order{
		{ID: 1, Status: domain.StatusPending},
		{ID: 2, Status: domain.StatusInProgress},
	}}
	b := newTestBoard(t, api)

	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if got := b.Orders(); len(got) != 2 || got[0].ID != 1 {
		t.Fatalf("unexpected render model: %+v", got)
	}
}

func TestRefreshSendsFilter(t *testing.T) {
	api := &fakeOrderAPI{}
	b := newTestBoard(t, api)
	rid := 7
	st := domain.StatusPending
	b.SetFilter(domain.OrderFilter{RestaurantID: &rid, Status: &st})

	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	api.mu.Lock()
	got := api.lastURL
	api.mu.Unlock()
	if got != "/api/orders?restaurant_id=7&status=pending" {
		t.Errorf("unexpected list URL %q", got)
	}
}

func TestTransitionIllegalNotIssued(t *testing.T) {
	api := &fakeOrderAPI{orders: []domain.Order{{ID: 1, Status: domain.StatusPending}}}
	b := newTestBoard(t, api)
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	// pending may not jump straight to served
	if b.Transition(context.Background(), 1, domain.StatusServed) {
		t.Error("expected illegal transition to be ignored")
	}
	// unknown orders are ignored too
	if b.Transition(context.Background(), 99, domain.StatusCancelled) {
		t.Error("expected unknown order to be ignored")
	}
	if n := atomic.LoadInt64(&api.patches); n != 0 {
		t.Errorf("expected zero status requests, got %d", n)
	}
}

func TestTransitionSuccessRefetches(t *testing.T) {
	api := &fakeOrderAPI{orders: []domain.Order{{ID: 1, Status: domain.StatusPending}}}
	b := newTestBoard(t, api)
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := atomic.LoadInt64(&api.lists)

	if !b.Transition(context.Background(), 1, domain.StatusInProgress) {
		t.Fatal("expected transition to be issued")
	}
	if n := atomic.LoadInt64(&api.patches); n != 1 {
		t.Errorf("expected one status request, got %d", n)
	}
	if after := atomic.LoadInt64(&api.lists); after != before+1 {
		t.Errorf("expected a re-fetch after success, lists went %d -> %d", before, after)
	}
}

func TestTransitionFailureIsSoft(t *testing.T) {
	api := &fakeOrderAPI{
		orders: []domain.Order{{ID: 1, Status: domain.StatusPending}},
		status: http.StatusConflict,
	}
	b := newTestBoard(t, api)
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := atomic.LoadInt64(&api.lists)

	if !b.Transition(context.Background(), 1, domain.StatusCancelled) {
		t.Fatal("expected transition to be issued")
	}
	// no re-fetch on failure; the next poll reconciles
	if after := atomic.LoadInt64(&api.lists); after != before {
		t.Errorf("unexpected re-fetch after failure")
	}
	// the guard was released
	if !b.Transition(context.Background(), 1, domain.StatusCancelled) {
		t.Error("expected guard to be clear after failure")
	}
}

func TestTransitionGuardIgnoresSecondClick(t *testing.T) {
	api := &fakeOrderAPI{
		orders: []domain.Order{{ID: 1, Status: domain.StatusPending}},
		block:  make(chan struct{}),
	}
	b := newTestBoard(t, api)
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan bool, 1)
	go func() {
		done <- b.Transition(context.Background(), 1, domain.StatusInProgress)
	}()
	// wait for the first request to hold the guard
	for {
		b.mu.Lock()
		held := b.updating[1]
		b.mu.Unlock()
		if held {
			break
		}
	}

	if b.Transition(context.Background(), 1, domain.StatusInProgress) {
		t.Error("expected second click to be ignored while in flight")
	}
	close(api.block)
	if !<-done {
		t.Error("expected first transition to be issued")
	}
}
