package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"tableside/internal/domain"
)

// User-facing copy for submit failures, surfaced verbatim by callers.
var (
	ErrSubmitInFlight    = errors.New("commande déjà en cours d'envoi")
	ErrMissingRestaurant = errors.New("restaurant manquant")
	ErrMissingTable      = errors.New("numéro de table manquant")
	ErrEmptyCart         = errors.New("panier vide")
	ErrMissingCSRF       = errors.New("session expirée, veuillez recharger la page")
)

const genericSubmitError = "échec de l'envoi de la commande"

const csrfHeader = "X-CSRF-Token"

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the CSRF token attached to mutating requests.
// ok is false when no token is discoverable.
type TokenSource func() (token string, ok bool)

func StaticToken(token string) TokenSource {
	return func() (string, bool) { return token, token != "" }
}

// CookieToken reads the XSRF-TOKEN cookie for baseURL out of jar.
func CookieToken(jar http.CookieJar, baseURL string) TokenSource {
	return func() (string, bool) {
		u, err := url.Parse(baseURL)
		if err != nil || jar == nil {
			return "", false
		}
		for _, c := range jar.Cookies(u) {
			if c.Name == "XSRF-TOKEN" {
				return c.Value, c.Value != ""
			}
		}
		return "", false
	}
}

// Submit validates the cart and posts it to the order service.
// Preconditions are checked in a fixed order and short-circuit before
// any network call: in-flight guard, restaurant, table number, items,
// CSRF token. The in-flight flag is set only after every precondition
// passes, so early returns never leave it stuck. A failed request
// leaves the cart untouched; on success the items are cleared and the
// created order returned.
func (s *Store) Submit(ctx context.Context) (*domain.Order, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if s.state.RestaurantID == 0 {
		s.mu.Unlock()
		return nil, ErrMissingRestaurant
	}
	if s.state.TableNumber == "" {
		s.mu.Unlock()
		return nil, ErrMissingTable
	}
	if len(s.state.Items) == 0 {
		s.mu.Unlock()
		return nil, ErrEmptyCart
	}
	token, ok := "", false
	if s.token != nil {
		token, ok = s.token()
	}
	if !ok {
		s.mu.Unlock()
		return nil, ErrMissingCSRF
	}
	req := domain.SubmitOrderRequest{
		RestaurantID: s.state.RestaurantID,
		TableNumber:  s.state.TableNumber,
	}
	for _, l := range s.state.Items {
		req.Items = append(req.Items, domain.SubmitOrderItem{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	s.submitting = true
	s.mu.Unlock()

	order, err := s.postOrder(ctx, req, token)

	s.mu.Lock()
	s.submitting = false
	if err == nil {
		s.state.Items = nil
		s.persist()
	}
	s.mu.Unlock()
	return order, err
}

func (s *Store) postOrder(ctx context.Context, body domain.SubmitOrderRequest, token string) (*domain.Order, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/api/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(csrfHeader, token)

	client := s.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", genericSubmitError, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New(serverErrorMessage(raw))
	}
	var order domain.Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, fmt.Errorf("%s: %w", genericSubmitError, err)
	}
	return &order, nil
}

// serverErrorMessage extracts failure copy best-effort: JSON message
// field, then raw body text, then a generic fallback.
func serverErrorMessage(raw []byte) string {
	var er domain.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Message != "" {
		return er.Message
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}
	return genericSubmitError
}
