package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"tableside/internal/auth"
	"tableside/internal/domain"
)

func newTestServer(t *testing.T, repo *fakeRepo) (*httptest.Server, []byte) {
	t.Helper()
	secret := []byte("test-secret")
	r := mux.NewRouter()
	NewHandler(NewService(repo, &fakePublisher{}), secret).Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, secret
}

func TestCreateOrderEndpoint(t *testing.T) {
	repo := &fakeRepo{exists: true, menu: menuFixture()}
	srv, _ := newTestServer(t, repo)

	body := `{"restaurant_id":1,"table_number":"T1","items":[{"item_id":10,"quantity":2}]}`
	resp, err := http.Post(srv.URL+"/api/orders", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var order domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatal(err)
	}
	if order.Total != 23 {
		t.Errorf("expected server-side total 23, got %v", order.Total)
	}
}

func TestCreateOrderValidationStatus(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRepo{exists: true, menu: menuFixture()})

	resp, err := http.Post(srv.URL+"/api/orders", "application/json",
		strings.NewReader(`{"restaurant_id":1,"table_number":"T1","items":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	var out domain.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Message == "" {
		t.Error("expected a message in the error body")
	}
}

func TestUpdateStatusRequiresAuth(t *testing.T) {
	repo := &fakeRepo{orders: map[int]domain.Order{1: {ID: 1, Status: domain.StatusPending}}}
	srv, _ := newTestServer(t, repo)

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/orders/1",
		strings.NewReader(`{"status":"in_progress"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
	if len(repo.updates) != 0 {
		t.Error("unauthenticated request reached the repository")
	}
}

func TestUpdateStatusConflictAndSuccess(t *testing.T) {
	repo := &fakeRepo{orders: map[int]domain.Order{1: {ID: 1, Status: domain.StatusPending}}}
	srv, secret := newTestServer(t, repo)

	token, err := auth.GenerateToken(secret, domain.User{ID: 1, Email: "marie@resto.fr", Role: "staff"})
	if err != nil {
		t.Fatal(err)
	}
	patch := func(body string) *http.Response {
		req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/orders/1", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	resp := patch(`{"status":"served"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for pending->served, got %d", resp.StatusCode)
	}

	resp = patch(`{"status":"in_progress"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var order domain.Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		t.Fatal(err)
	}
	if order.Status != domain.StatusInProgress {
		t.Errorf("expected in_progress, got %s", order.Status)
	}
}

func TestGetOrderNotFound(t *testing.T) {
	srv, _ := newTestServer(t, &fakeRepo{orders: map[int]domain.Order{}})

	resp, err := http.Get(srv.URL + "/api/orders/99")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
