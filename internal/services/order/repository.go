package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"tableside/internal/common/db"
	"tableside/internal/domain"
)

// Repository is the order persistence port.
type Repository interface {
	MenuItems(ctx context.Context, restaurantID int, ids []int) (map[int]domain.MenuItem, error)
	TableState(ctx context.Context, restaurantID int, number string) (exists, occupied bool, err error)
	CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error)
	GetOrder(ctx context.Context, id int) (domain.Order, bool, error)
	ListOrders(ctx context.Context, f domain.OrderFilter) (domain.OrderPage, error)
	UpdateStatus(ctx context.Context, id int, to domain.OrderStatus, changedBy string) error
	Stats(ctx context.Context, restaurantID int) (domain.Stats, error)
}

type PGRepository struct {
	conn *db.Conn
}

func NewPGRepository(conn *db.Conn) *PGRepository { return &PGRepository{conn: conn} }

func (r *PGRepository) MenuItems(ctx context.Context, restaurantID int, ids []int) (map[int]domain.MenuItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, restaurant_id, category_id, name, description, price, image, available
		FROM menu_items
		WHERE restaurant_id = $1 AND id = ANY($2)
	`, restaurantID, ids)
	if err != nil {
		return nil, fmt.Errorf("select menu items: %w", err)
	}
	defer rows.Close()

	out := make(map[int]domain.MenuItem, len(ids))
	for rows.Next() {
		var m domain.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.CategoryID, &m.Name,
			&m.Description, &m.Price, &m.Image, &m.Available); err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

func (r *PGRepository) TableState(ctx context.Context, restaurantID int, number string) (bool, bool, error) {
	var exists, occupied bool
	err := r.conn.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM tables WHERE restaurant_id = $1 AND number = $2),
			EXISTS (SELECT 1 FROM orders
			        WHERE restaurant_id = $1 AND table_number = $2
			          AND status IN ('pending', 'in_progress'))
	`, restaurantID, number).Scan(&exists, &occupied)
	if err != nil {
		return false, false, fmt.Errorf("check table: %w", err)
	}
	return exists, occupied, nil
}

func (r *PGRepository) CreateOrder(ctx context.Context, o domain.Order) (domain.Order, error) {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return domain.Order{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (restaurant_id, table_number, status, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`, o.RestaurantID, o.TableNumber, o.Status, o.Total).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, item_id, name, quantity, price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, o.ID, o.Items[i].ItemID, o.Items[i].Name, o.Items[i].Quantity, o.Items[i].Price).Scan(&o.Items[i].ID)
		if err != nil {
			return domain.Order{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, 'order-service', NOW())
	`, o.ID, o.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("insert status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

func (r *PGRepository) GetOrder(ctx context.Context, id int) (domain.Order, bool, error) {
	var o domain.Order
	err := r.conn.QueryRow(ctx, `
		SELECT id, restaurant_id, table_number, status, total, created_at, updated_at
		FROM orders WHERE id = $1
	`, id).Scan(&o.ID, &o.RestaurantID, &o.TableNumber, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		return domain.Order{}, false, fmt.Errorf("select order: %w", err)
	}
	items, err := r.itemsFor(ctx, []int{o.ID})
	if err != nil {
		return domain.Order{}, false, err
	}
	o.Items = items[o.ID]
	return o, true, nil
}

func (r *PGRepository) ListOrders(ctx context.Context, f domain.OrderFilter) (domain.OrderPage, error) {
	page, perPage := f.Page, f.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	where := "WHERE 1=1"
	args := []any{}
	if f.RestaurantID != nil {
		args = append(args, *f.RestaurantID)
		where += fmt.Sprintf(" AND restaurant_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	out := domain.OrderPage{Page: page, PerPage: perPage, Orders: []domain.Order{}}
	if err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM orders "+where, args...).Scan(&out.Total); err != nil {
		return domain.OrderPage{}, fmt.Errorf("count orders: %w", err)
	}

	args = append(args, perPage, (page-1)*perPage)
	rows, err := r.conn.Query(ctx, fmt.Sprintf(`
		SELECT id, restaurant_id, table_number, status, total, created_at, updated_at
		FROM orders %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args)), args...)
	if err != nil {
		return domain.OrderPage{}, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.RestaurantID, &o.TableNumber, &o.Status,
			&o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return domain.OrderPage{}, err
		}
		out.Orders = append(out.Orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return domain.OrderPage{}, err
	}

	if len(ids) > 0 {
		items, err := r.itemsFor(ctx, ids)
		if err != nil {
			return domain.OrderPage{}, err
		}
		for i := range out.Orders {
			out.Orders[i].Items = items[out.Orders[i].ID]
		}
	}
	return out, nil
}

func (r *PGRepository) itemsFor(ctx context.Context, orderIDs []int) (map[int][]domain.OrderItem, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT id, order_id, item_id, name, quantity, price
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY id ASC
	`, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	out := make(map[int][]domain.OrderItem)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ItemID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id int, to domain.OrderStatus, changedBy string) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, to, id)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, NOW())
	`, id, to, changedBy)
	if err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PGRepository) Stats(ctx context.Context, restaurantID int) (domain.Stats, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total) FILTER (WHERE status = 'served'), 0)
		FROM orders
		WHERE ($1 = 0 OR restaurant_id = $1)
		GROUP BY status
	`, restaurantID)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("select stats: %w", err)
	}
	defer rows.Close()

	stats := domain.Stats{ByStatus: make(map[domain.OrderStatus]int)}
	for rows.Next() {
		var status domain.OrderStatus
		var count int
		var revenue float64
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return domain.Stats{}, err
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
		stats.Revenue += revenue
	}
	return stats, rows.Err()
}
