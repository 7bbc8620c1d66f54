// Package tablecheck performs the debounced table-number availability
// lookup behind the table picker. Each keystroke schedules a delayed
// lookup; a newer keystroke invalidates the prior schedule, and a
// monotonically increasing sequence number discards results of stale
// lookups that were already in flight.
package tablecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const DefaultDebounce = 300 * time.Millisecond

// Lookup resolves whether tableNumber is known and free at a restaurant.
type Lookup func(ctx context.Context, restaurantID int, tableNumber string) (bool, error)

type Result struct {
	TableNumber string
	Available   bool
	Err         error
}

type Checker struct {
	lookup Lookup
	delay  time.Duration
	apply  func(Result)

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

// New builds a checker; apply receives only the last-scheduled lookup's
// result.
func New(lookup Lookup, delay time.Duration, apply func(Result)) *Checker {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Checker{lookup: lookup, delay: delay, apply: apply}
}

// Check schedules a lookup after the debounce delay. A newer Check
// stops a pending schedule; a lookup already in flight is not aborted,
// but its result is dropped when it loses the sequence race.
func (c *Checker) Check(ctx context.Context, restaurantID int, tableNumber string) {
	c.mu.Lock()
	c.seq++
	mine := c.seq
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.delay, func() {
		available, err := c.lookup(ctx, restaurantID, tableNumber)

		c.mu.Lock()
		stale := mine != c.seq
		c.mu.Unlock()
		if stale {
			return
		}
		c.apply(Result{TableNumber: tableNumber, Available: available, Err: err})
	})
	c.mu.Unlock()
}

// HTTPLookup queries the order service's availability endpoint.
func HTTPLookup(baseURL string, client *http.Client) Lookup {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, restaurantID int, tableNumber string) (bool, error) {
		u := fmt.Sprintf("%s/api/restaurants/%d/tables/%s/availability",
			baseURL, restaurantID, url.PathEscape(tableNumber))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return false, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return false, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false, fmt.Errorf("availability lookup: status %d", resp.StatusCode)
		}
		var out struct {
			Available bool `json:"available"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false, err
		}
		return out.Available, nil
	}
}
