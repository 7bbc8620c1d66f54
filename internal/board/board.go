// Package board implements the staff order board: a polled list of
// open orders and guarded forward status transitions.
package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"tableside/internal/common/logger"
	"tableside/internal/domain"
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the CSRF token attached to status updates.
type TokenSource func() (token string, ok bool)

// Board is the staff view model for one restaurant's open orders.
// Refresh replaces the whole render model from the server; there is no
// incremental diffing.
type Board struct {
	endpoint  string
	client    httpDoer
	token     TokenSource
	authToken string
	log       *logger.Logger

	mu       sync.Mutex
	filter   domain.OrderFilter
	orders   []domain.Order
	updating map[int]bool
}

type Option func(*Board)

func WithHTTPClient(c httpDoer) Option {
	return func(b *Board) { b.client = c }
}

func WithTokenSource(ts TokenSource) Option {
	return func(b *Board) { b.token = ts }
}

// WithAuthToken sets the staff bearer token sent on every request.
func WithAuthToken(token string) Option {
	return func(b *Board) { b.authToken = token }
}

func New(endpoint string, opts ...Option) *Board {
	b := &Board{
		endpoint: endpoint,
		client:   http.DefaultClient,
		log:      logger.New("order-board"),
		updating: make(map[int]bool),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// SetFilter narrows the listing; the selection survives refreshes.
func (b *Board) SetFilter(f domain.OrderFilter) {
	b.mu.Lock()
	b.filter = f
	b.mu.Unlock()
}

// Orders returns the current render model.
func (b *Board) Orders() []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Order, len(b.orders))
	copy(out, b.orders)
	return out
}

// Actions lists the status transitions offered for an order, straight
// from the domain transition table. Terminal orders offer none.
func (b *Board) Actions(o domain.Order) []domain.OrderStatus {
	return domain.NextStatuses(o.Status)
}

// Refresh fetches the order list and replaces the render model.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	filter := b.filter
	b.mu.Unlock()

	page, err := b.list(ctx, filter)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.orders = page.Orders
	b.mu.Unlock()
	return nil
}

func (b *Board) list(ctx context.Context, f domain.OrderFilter) (domain.OrderPage, error) {
	q := url.Values{}
	if f.RestaurantID != nil {
		q.Set("restaurant_id", strconv.Itoa(*f.RestaurantID))
	}
	if f.Status != nil {
		q.Set("status", string(*f.Status))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	u := b.endpoint + "/api/orders"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.OrderPage{}, err
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return domain.OrderPage{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.OrderPage{}, fmt.Errorf("list orders: status %d", resp.StatusCode)
	}
	var page domain.OrderPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return domain.OrderPage{}, err
	}
	return page, nil
}

// Transition requests a status change for one order. A second call for
// the same order while a request is outstanding is ignored, as is any
// transition the board does not offer for the order's current status.
// Failures are logged only; the next poll reconciles the view. The
// return value reports whether a request was issued.
func (b *Board) Transition(ctx context.Context, orderID int, next domain.OrderStatus) bool {
	b.mu.Lock()
	if b.updating[orderID] {
		b.mu.Unlock()
		return false
	}
	cur, found := b.find(orderID)
	if !found || !cur.Status.CanTransition(next) {
		b.mu.Unlock()
		return false
	}
	b.updating[orderID] = true
	b.mu.Unlock()

	err := b.patchStatus(ctx, orderID, next)

	b.mu.Lock()
	delete(b.updating, orderID)
	b.mu.Unlock()

	if err != nil {
		b.log.Warn("status_update_failed", err, map[string]any{"order_id": orderID, "status": next})
		return true
	}
	// reconcile with server state rather than patching locally
	if err := b.Refresh(ctx); err != nil {
		b.log.Warn("refresh_failed", err, map[string]any{"order_id": orderID})
	}
	return true
}

// find locates an order in the render model. Callers hold b.mu.
func (b *Board) find(orderID int) (domain.Order, bool) {
	for _, o := range b.orders {
		if o.ID == orderID {
			return o, true
		}
	}
	return domain.Order{}, false
}

func (b *Board) patchStatus(ctx context.Context, orderID int, next domain.OrderStatus) error {
	payload, err := json.Marshal(domain.UpdateStatusRequest{Status: next})
	if err != nil {
		return err
	}
	u := fmt.Sprintf("%s/api/orders/%d", b.endpoint, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, u, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != nil {
		if tok, ok := b.token(); ok {
			req.Header.Set("X-CSRF-Token", tok)
		}
	}
	b.authorize(req)
	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("update status: status %d", resp.StatusCode)
	}
	return nil
}

func (b *Board) authorize(req *http.Request) {
	if b.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+b.authToken)
	}
}
