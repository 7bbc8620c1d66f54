package admin

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"tableside/internal/auth"
	"tableside/internal/domain"
)

type fakeRepo struct {
	users       map[string]domain.User
	restaurants map[int]domain.Restaurant
	created     []domain.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:       map[string]domain.User{},
		restaurants: map[int]domain.Restaurant{},
	}
}

func (f *fakeRepo) CreateRestaurant(ctx context.Context, r domain.Restaurant) (domain.Restaurant, error) {
	r.ID = len(f.restaurants) + 1
	f.restaurants[r.ID] = r
	return r, nil
}

func (f *fakeRepo) GetRestaurant(ctx context.Context, id int) (domain.Restaurant, bool, error) {
	r, ok := f.restaurants[id]
	return r, ok, nil
}

func (f *fakeRepo) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateRestaurant(ctx context.Context, r domain.Restaurant) (bool, error) {
	if _, ok := f.restaurants[r.ID]; !ok {
		return false, nil
	}
	f.restaurants[r.ID] = r
	return true, nil
}

func (f *fakeRepo) DeleteRestaurant(ctx context.Context, id int) (bool, error) {
	if _, ok := f.restaurants[id]; !ok {
		return false, nil
	}
	delete(f.restaurants, id)
	return true, nil
}

func (f *fakeRepo) CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error) {
	c.ID = 1
	return c, nil
}
func (f *fakeRepo) ListCategories(ctx context.Context, restaurantID int) ([]domain.Category, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateCategory(ctx context.Context, c domain.Category) (bool, error) {
	return true, nil
}
func (f *fakeRepo) DeleteCategory(ctx context.Context, id int) (bool, error) { return true, nil }

func (f *fakeRepo) CreateMenuItem(ctx context.Context, m domain.MenuItem) (domain.MenuItem, error) {
	m.ID = 1
	return m, nil
}
func (f *fakeRepo) ListMenuItems(ctx context.Context, restaurantID int) ([]domain.MenuItem, error) {
	return nil, nil
}
func (f *fakeRepo) UpdateMenuItem(ctx context.Context, m domain.MenuItem) (bool, error) {
	return true, nil
}
func (f *fakeRepo) DeleteMenuItem(ctx context.Context, id int) (bool, error) { return true, nil }

func (f *fakeRepo) CreateTable(ctx context.Context, t domain.Table) (domain.Table, error) {
	t.ID = 1
	return t, nil
}
func (f *fakeRepo) ListTables(ctx context.Context, restaurantID int) ([]domain.Table, error) {
	return nil, nil
}
func (f *fakeRepo) DeleteTable(ctx context.Context, id int) (bool, error) { return true, nil }

func (f *fakeRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.ID = len(f.users) + 1
	f.users[u.Email] = u
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	u, ok := f.users[email]
	return u, ok, nil
}

func (f *fakeRepo) ListUsers(ctx context.Context, restaurantID int) ([]domain.User, error) {
	return nil, nil
}
func (f *fakeRepo) DeleteUser(ctx context.Context, id int) (bool, error) { return true, nil }

var testSecret = []byte("test-secret")

func seedUser(t *testing.T, repo *fakeRepo, email, password, role string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	repo.users[email] = domain.User{
		ID: 1, Email: email, Role: role, PasswordHash: string(hash),
	}
}

func TestLoginIssuesToken(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "anna@resto.fr", "secret-pass", "staff")
	svc := NewService(repo, testSecret)

	out, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: "  Anna@Resto.fr ", Password: "secret-pass",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := auth.ParseToken(testSecret, out.Token)
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if claims.Email != "anna@resto.fr" || claims.Role != "staff" {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := newFakeRepo()
	seedUser(t, repo, "anna@resto.fr", "secret-pass", "staff")
	svc := NewService(repo, testSecret)

	cases := []domain.LoginRequest{
		{Email: "anna@resto.fr", Password: "wrong"},
		{Email: "nobody@resto.fr", Password: "secret-pass"},
	}
	for _, req := range cases {
		if _, err := svc.Login(context.Background(), req); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("login(%s) expected invalid credentials, got %v", req.Email, err)
		}
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, testSecret)

	user, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Email: "Chef@Resto.fr", Name: "Chef", Role: "staff", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	if user.Email != "chef@resto.fr" {
		t.Errorf("email not normalised: %q", user.Email)
	}
	stored := repo.created[0]
	if stored.PasswordHash == "longenough" || stored.PasswordHash == "" {
		t.Fatal("password stored without hashing")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("longenough")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), testSecret)

	cases := []struct {
		name string
		req  CreateUserRequest
	}{
		{"bad email", CreateUserRequest{Email: "not-an-email", Role: "staff", Password: "longenough"}},
		{"bad role", CreateUserRequest{Email: "a@b.fr", Role: "owner", Password: "longenough"}},
		{"short password", CreateUserRequest{Email: "a@b.fr", Role: "staff", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tc.req)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMenuItemValidation(t *testing.T) {
	svc := NewService(newFakeRepo(), testSecret)

	_, err := svc.CreateMenuItem(context.Background(), domain.MenuItem{
		RestaurantID: 1, Name: "Burrata", Price: -2,
	})
	var ve ValidationError
	if !errors.As(err, &ve) || ve.Field != "price" {
		t.Fatalf("expected price validation error, got %v", err)
	}

	item, err := svc.CreateMenuItem(context.Background(), domain.MenuItem{
		RestaurantID: 1, CategoryID: 1, Name: "Burrata", Price: 9.5, Available: true,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if item.ID == 0 {
		t.Error("expected assigned id")
	}
}

func TestUpdateRestaurantNotFound(t *testing.T) {
	svc := NewService(newFakeRepo(), testSecret)
	_, err := svc.UpdateRestaurant(context.Background(), domain.Restaurant{ID: 42, Name: "Chez Luigi"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
