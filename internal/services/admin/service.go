package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"tableside/internal/auth"
	"tableside/internal/common/logger"
	"tableside/internal/domain"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type Service struct {
	repo   Repository
	secret []byte
	log    *logger.Logger
}

func NewService(repo Repository, jwtSecret []byte) *Service {
	return &Service{repo: repo, secret: jwtSecret, log: logger.New("admin-service")}
}

// Login checks the password against the stored bcrypt hash and issues
// a signed token. Unknown emails and bad passwords are not
// distinguished in the error.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, found, err := s.repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if !found {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}
	token, err := auth.GenerateToken(s.secret, user)
	if err != nil {
		return domain.LoginResponse{}, fmt.Errorf("sign token: %w", err)
	}
	s.log.Info("user_logged_in", map[string]any{"user_id": user.ID, "role": user.Role})
	return domain.LoginResponse{Token: token, User: user}, nil
}

func (s *Service) CreateRestaurant(ctx context.Context, in domain.Restaurant) (domain.Restaurant, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Restaurant{}, ValidationError{Field: "name", Message: "name is required"}
	}
	out, err := s.repo.CreateRestaurant(ctx, in)
	if err != nil {
		return domain.Restaurant{}, err
	}
	s.log.Info("restaurant_created", map[string]any{"restaurant_id": out.ID, "name": out.Name})
	return out, nil
}

func (s *Service) GetRestaurant(ctx context.Context, id int) (domain.Restaurant, error) {
	out, found, err := s.repo.GetRestaurant(ctx, id)
	if err != nil {
		return domain.Restaurant{}, err
	}
	if !found {
		return domain.Restaurant{}, ErrNotFound
	}
	return out, nil
}

func (s *Service) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	return s.repo.ListRestaurants(ctx)
}

func (s *Service) UpdateRestaurant(ctx context.Context, in domain.Restaurant) (domain.Restaurant, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Restaurant{}, ValidationError{Field: "name", Message: "name is required"}
	}
	ok, err := s.repo.UpdateRestaurant(ctx, in)
	if err != nil {
		return domain.Restaurant{}, err
	}
	if !ok {
		return domain.Restaurant{}, ErrNotFound
	}
	return s.GetRestaurant(ctx, in.ID)
}

func (s *Service) DeleteRestaurant(ctx context.Context, id int) error {
	ok, err := s.repo.DeleteRestaurant(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info("restaurant_deleted", map[string]any{"restaurant_id": id})
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, in domain.Category) (domain.Category, error) {
	if in.RestaurantID <= 0 {
		return domain.Category{}, ValidationError{Field: "restaurant_id", Message: "restaurant is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.Category{}, ValidationError{Field: "name", Message: "name is required"}
	}
	return s.repo.CreateCategory(ctx, in)
}

func (s *Service) ListCategories(ctx context.Context, restaurantID int) ([]domain.Category, error) {
	return s.repo.ListCategories(ctx, restaurantID)
}

func (s *Service) UpdateCategory(ctx context.Context, in domain.Category) (domain.Category, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Category{}, ValidationError{Field: "name", Message: "name is required"}
	}
	ok, err := s.repo.UpdateCategory(ctx, in)
	if err != nil {
		return domain.Category{}, err
	}
	if !ok {
		return domain.Category{}, ErrNotFound
	}
	return in, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id int) error {
	ok, err := s.repo.DeleteCategory(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateMenuItem(ctx context.Context, in domain.MenuItem) (domain.MenuItem, error) {
	if in.RestaurantID <= 0 {
		return domain.MenuItem{}, ValidationError{Field: "restaurant_id", Message: "restaurant is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		return domain.MenuItem{}, ValidationError{Field: "name", Message: "name is required"}
	}
	if in.Price < 0 {
		return domain.MenuItem{}, ValidationError{Field: "price", Message: "price cannot be negative"}
	}
	return s.repo.CreateMenuItem(ctx, in)
}

func (s *Service) ListMenuItems(ctx context.Context, restaurantID int) ([]domain.MenuItem, error) {
	return s.repo.ListMenuItems(ctx, restaurantID)
}

func (s *Service) UpdateMenuItem(ctx context.Context, in domain.MenuItem) (domain.MenuItem, error) {
	if strings.TrimSpace(in.Name) == "" {
		return domain.MenuItem{}, ValidationError{Field: "name", Message: "name is required"}
	}
	if in.Price < 0 {
		return domain.MenuItem{}, ValidationError{Field: "price", Message: "price cannot be negative"}
	}
	ok, err := s.repo.UpdateMenuItem(ctx, in)
	if err != nil {
		return domain.MenuItem{}, err
	}
	if !ok {
		return domain.MenuItem{}, ErrNotFound
	}
	return in, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id int) error {
	ok, err := s.repo.DeleteMenuItem(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) CreateTable(ctx context.Context, in domain.Table) (domain.Table, error) {
	if in.RestaurantID <= 0 {
		return domain.Table{}, ValidationError{Field: "restaurant_id", Message: "restaurant is required"}
	}
	if strings.TrimSpace(in.Number) == "" {
		return domain.Table{}, ValidationError{Field: "number", Message: "table number is required"}
	}
	if in.Seats <= 0 {
		in.Seats = 2
	}
	return s.repo.CreateTable(ctx, in)
}

func (s *Service) ListTables(ctx context.Context, restaurantID int) ([]domain.Table, error) {
	return s.repo.ListTables(ctx, restaurantID)
}

func (s *Service) DeleteTable(ctx context.Context, id int) error {
	ok, err := s.repo.DeleteTable(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// CreateUserRequest carries the plaintext password only up to the
// service boundary; it is hashed before touching storage.
type CreateUserRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Password     string `json:"password"`
	RestaurantID *int   `json:"restaurant_id,omitempty"`
}

const minPasswordLen = 8

func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, ValidationError{Field: "email", Message: "a valid email is required"}
	}
	if req.Role != "admin" && req.Role != "staff" {
		return domain.User{}, ValidationError{Field: "role", Message: "role must be admin or staff"}
	}
	if len(req.Password) < minPasswordLen {
		return domain.User{}, ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.CreateUser(ctx, domain.User{
		Email:        email,
		Name:         req.Name,
		Role:         req.Role,
		PasswordHash: string(hash),
		RestaurantID: req.RestaurantID,
	})
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("user_created", map[string]any{"user_id": user.ID, "role": user.Role})
	return user, nil
}

func (s *Service) ListUsers(ctx context.Context, restaurantID int) ([]domain.User, error) {
	return s.repo.ListUsers(ctx, restaurantID)
}

func (s *Service) DeleteUser(ctx context.Context, id int) error {
	ok, err := s.repo.DeleteUser(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
