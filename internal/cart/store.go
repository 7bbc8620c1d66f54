package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"tableside/internal/domain"
)

// Line is one cart entry. Quantity never persists at zero or below:
// decrementing a quantity-1 line removes it.
type Line struct {
	ItemID   int     `json:"item_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Image    *string `json:"image,omitempty"`
}

// State is the persisted shape, one entry per restaurant key.
type State struct {
	RestaurantID int    `json:"restaurant_id"`
	TableNumber  string `json:"table_number"`
	Items        []Line `json:"items"`
}

// Store holds the in-progress order for one restaurant/table pairing.
// Every mutation is written through to the injected Storage before the
// call returns.
type Store struct {
	mu         sync.Mutex
	storage    Storage
	state      State
	submitting bool

	endpoint string
	client   httpDoer
	token    TokenSource
}

type Option func(*Store)

// WithEndpoint sets the order service base URL used by Submit.
func WithEndpoint(baseURL string) Option {
	return func(s *Store) { s.endpoint = baseURL }
}

func WithHTTPClient(c httpDoer) Option {
	return func(s *Store) { s.client = c }
}

// WithTokenSource sets where Submit finds the CSRF token.
func WithTokenSource(ts TokenSource) Option {
	return func(s *Store) { s.token = ts }
}

func New(storage Storage, opts ...Option) *Store {
	s := &Store{storage: storage}
	for _, o := range opts {
		o(s)
	}
	return s
}

func storageKey(restaurantID int) string {
	if restaurantID == 0 {
		return "cart:anonymous"
	}
	return fmt.Sprintf("cart:%d", restaurantID)
}

// SetRestaurant switches the active restaurant. The id takes effect
// immediately; table number and items are reloaded from storage for the
// new id, or reset to empty when nothing is persisted. Carts never merge
// across restaurants.
func (s *Store) SetRestaurant(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.RestaurantID = id
	s.state.TableNumber = ""
	s.state.Items = nil
	if b, ok := s.storage.Get(storageKey(id)); ok {
		var prev State
		if err := json.Unmarshal(b, &prev); err == nil {
			s.state.TableNumber = prev.TableNumber
			s.state.Items = prev.Items
		}
	}
	s.persist()
}

func (s *Store) SetTableNumber(n string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.TableNumber = n
	s.persist()
}

// AddItem merges quantity into an existing line for the same item, or
// appends a new line preserving insertion order. Quantities below 1 are
// treated as 1; AddItem never decreases a quantity.
func (s *Store) AddItem(item domain.MenuItem, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Items {
		if s.state.Items[i].ItemID == item.ID {
			s.state.Items[i].Quantity += quantity
			s.persist()
			return
		}
	}
	s.state.Items = append(s.state.Items, Line{
		ItemID:   item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: quantity,
		Image:    item.Image,
	})
	s.persist()
}

func (s *Store) Increment(itemID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Items {
		if s.state.Items[i].ItemID == itemID {
			s.state.Items[i].Quantity++
			s.persist()
			return
		}
	}
}

// Decrement lowers a line's quantity by one. Below 1 the line is
// filtered out entirely, never kept at zero.
func (s *Store) Decrement(itemID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Items {
		if s.state.Items[i].ItemID != itemID {
			continue
		}
		if s.state.Items[i].Quantity <= 1 {
			s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
		} else {
			s.state.Items[i].Quantity--
		}
		s.persist()
		return
	}
}

func (s *Store) Remove(itemID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.state.Items {
		if s.state.Items[i].ItemID == itemID {
			s.state.Items = append(s.state.Items[:i], s.state.Items[i+1:]...)
			s.persist()
			return
		}
	}
}

// Clear empties the items and keeps the restaurant/table selection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Items = nil
	s.persist()
}

func (s *Store) RestaurantID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.RestaurantID
}

func (s *Store) TableNumber() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TableNumber
}

func (s *Store) Items() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Line, len(s.state.Items))
	copy(out, s.state.Items)
	return out
}

// Total is the sum of price x quantity over all lines.
func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, l := range s.state.Items {
		total += l.Price * float64(l.Quantity)
	}
	return total
}

// Count is the sum of quantities over all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, l := range s.state.Items {
		n += l.Quantity
	}
	return n
}

// persist writes the whole state under the active restaurant key.
// Callers hold s.mu.
func (s *Store) persist() {
	b, err := json.Marshal(s.state)
	if err != nil {
		return
	}
	s.storage.Set(storageKey(s.state.RestaurantID), b)
}
