package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tableside/internal/common/db"
	"tableside/internal/domain"
)

// Repository is the catalog persistence port: restaurants, their menu,
// tables and staff accounts.
type Repository interface {
	CreateRestaurant(ctx context.Context, r domain.Restaurant) (domain.Restaurant, error)
	GetRestaurant(ctx context.Context, id int) (domain.Restaurant, bool, error)
	ListRestaurants(ctx context.Context) ([]domain.Restaurant, error)
	UpdateRestaurant(ctx context.Context, r domain.Restaurant) (bool, error)
	DeleteRestaurant(ctx context.Context, id int) (bool, error)

	CreateCategory(ctx context.Context, c domain.Category) (domain.Category, error)
	ListCategories(ctx context.Context, restaurantID int) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) (bool, error)
	DeleteCategory(ctx context.Context, id int) (bool, error)

	CreateMenuItem(ctx context.Context, m domain.MenuItem) (domain.MenuItem, error)
	ListMenuItems(ctx context.Context, restaurantID int) ([]domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, m domain.MenuItem) (bool, error)
	DeleteMenuItem(ctx context.Context, id int) (bool, error)

	CreateTable(ctx context.Context, t domain.Table) (domain.Table, error)
	ListTables(ctx context.Context, restaurantID int) ([]domain.Table, error)
	DeleteTable(ctx context.Context, id int) (bool, error)

	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error)
	ListUsers(ctx context.Context, restaurantID int) ([]domain.User, error)
	DeleteUser(ctx context.Context, id int) (bool, error)
}

type PGRepository struct {
	conn *db.Conn
}

func NewPGRepository(conn *db.Conn) *PGRepository { return &PGRepository{conn: conn} }

func (r *PGRepository) CreateRestaurant(ctx context.Context, in domain.Restaurant) (domain.Restaurant, error) {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO restaurants (name, address, contact_email)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, in.Name, in.Address, in.ContactEmail).Scan(&in.ID, &in.CreatedAt)
	if err != nil {
		return domain.Restaurant{}, fmt.Errorf("insert restaurant: %w", err)
	}
	return in, nil
}

func (r *PGRepository) GetRestaurant(ctx context.Context, id int) (domain.Restaurant, bool, error) {
	var out domain.Restaurant
	err := r.conn.QueryRow(ctx, `
		SELECT id, name, address, contact_email, created_at
		FROM restaurants WHERE id = $1
	`, id).Scan(&out.ID, &out.Name, &out.Address, &out.ContactEmail, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Restaurant{}, false, nil
	}
	if err != nil {
		return domain.Restaurant{}, false, err
	}
	return out, true, nil
}

func (r *PGRepository) ListRestaurants(ctx context.Context) ([]domain.Restaurant, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, name, address, contact_email, created_at
		FROM restaurants ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("select restaurants: %w", err)
	}
	defer rows.Close()

	var out []domain.Restaurant
	for rows.Next() {
		var x domain.Restaurant
		if err := rows.Scan(&x.ID, &x.Name, &x.Address, &x.ContactEmail, &x.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PGRepository) UpdateRestaurant(ctx context.Context, in domain.Restaurant) (bool, error) {
	tag, err := r.conn.Exec(ctx, `
		UPDATE restaurants SET name = $2, address = $3, contact_email = $4
		WHERE id = $1
	`, in.ID, in.Name, in.Address, in.ContactEmail)
	if err != nil {
		return false, fmt.Errorf("update restaurant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) DeleteRestaurant(ctx context.Context, id int) (bool, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM restaurants WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete restaurant: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) CreateCategory(ctx context.Context, in domain.Category) (domain.Category, error) {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO categories (restaurant_id, name, position)
		VALUES ($1, $2, $3)
		RETURNING id
	`, in.RestaurantID, in.Name, in.Position).Scan(&in.ID)
	if err != nil {
		return domain.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return in, nil
}

func (r *PGRepository) ListCategories(ctx context.Context, restaurantID int) ([]domain.Category, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, restaurant_id, name, position
		FROM categories WHERE restaurant_id = $1
		ORDER BY position, id
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var x domain.Category
		if err := rows.Scan(&x.ID, &x.RestaurantID, &x.Name, &x.Position); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PGRepository) UpdateCategory(ctx context.Context, in domain.Category) (bool, error) {
	tag, err := r.conn.Exec(ctx, `
		UPDATE categories SET name = $2, position = $3 WHERE id = $1
	`, in.ID, in.Name, in.Position)
	if err != nil {
		return false, fmt.Errorf("update category: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) DeleteCategory(ctx context.Context, id int) (bool, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) CreateMenuItem(ctx context.Context, in domain.MenuItem) (domain.MenuItem, error) {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO menu_items (restaurant_id, category_id, name, description, price, image, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, in.RestaurantID, in.CategoryID, in.Name, in.Description, in.Price, in.Image, in.Available).Scan(&in.ID)
	if err != nil {
		return domain.MenuItem{}, fmt.Errorf("insert menu item: %w", err)
	}
	return in, nil
}

func (r *PGRepository) ListMenuItems(ctx context.Context, restaurantID int) ([]domain.MenuItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, restaurant_id, category_id, name, description, price, image, available
		FROM menu_items WHERE restaurant_id = $1
		ORDER BY category_id, id
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("select menu items: %w", err)
	}
	defer rows.Close()

	var out []domain.MenuItem
	for rows.Next() {
		var x domain.MenuItem
		if err := rows.Scan(&x.ID, &x.RestaurantID, &x.CategoryID, &x.Name,
			&x.Description, &x.Price, &x.Image, &x.Available); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PGRepository) UpdateMenuItem(ctx context.Context, in domain.MenuItem) (bool, error) {
	tag, err := r.conn.Exec(ctx, `
		UPDATE menu_items
		SET category_id = $2, name = $3, description = $4, price = $5, image = $6, available = $7
		WHERE id = $1
	`, in.ID, in.CategoryID, in.Name, in.Description, in.Price, in.Image, in.Available)
	if err != nil {
		return false, fmt.Errorf("update menu item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) DeleteMenuItem(ctx context.Context, id int) (bool, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete menu item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) CreateTable(ctx context.Context, in domain.Table) (domain.Table, error) {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO tables (restaurant_id, number, seats)
		VALUES ($1, $2, $3)
		RETURNING id
	`, in.RestaurantID, in.Number, in.Seats).Scan(&in.ID)
	if err != nil {
		return domain.Table{}, fmt.Errorf("insert table: %w", err)
	}
	return in, nil
}

func (r *PGRepository) ListTables(ctx context.Context, restaurantID int) ([]domain.Table, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, restaurant_id, number, seats
		FROM tables WHERE restaurant_id = $1 ORDER BY id
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("select tables: %w", err)
	}
	defer rows.Close()

	var out []domain.Table
	for rows.Next() {
		var x domain.Table
		if err := rows.Scan(&x.ID, &x.RestaurantID, &x.Number, &x.Seats); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PGRepository) DeleteTable(ctx context.Context, id int) (bool, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM tables WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete table: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) CreateUser(ctx context.Context, in domain.User) (domain.User, error) {
	err := r.conn.QueryRow(ctx, `
		INSERT INTO users (email, name, role, password_hash, restaurant_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, in.Email, in.Name, in.Role, in.PasswordHash, in.RestaurantID).Scan(&in.ID, &in.CreatedAt)
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return in, nil
}

func (r *PGRepository) GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	var out domain.User
	err := r.conn.QueryRow(ctx, `
		SELECT id, email, name, role, password_hash, restaurant_id, created_at
		FROM users WHERE email = $1
	`, email).Scan(&out.ID, &out.Email, &out.Name, &out.Role,
		&out.PasswordHash, &out.RestaurantID, &out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return out, true, nil
}

func (r *PGRepository) ListUsers(ctx context.Context, restaurantID int) ([]domain.User, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, email, name, role, password_hash, restaurant_id, created_at
		FROM users WHERE restaurant_id = $1 OR $1 = 0
		ORDER BY id
	`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var x domain.User
		if err := rows.Scan(&x.ID, &x.Email, &x.Name, &x.Role,
			&x.PasswordHash, &x.RestaurantID, &x.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, rows.Err()
}

func (r *PGRepository) DeleteUser(ctx context.Context, id int) (bool, error) {
	tag, err := r.conn.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
