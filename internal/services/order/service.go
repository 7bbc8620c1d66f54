package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tableside/internal/common/logger"
	"tableside/internal/common/mq"
	"tableside/internal/domain"
)

var (
	ErrNotFound          = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal status transition")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// EventPublisher pushes order lifecycle events to the broker.
// mq.Client satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, key string, body []byte) error
}

type Service struct {
	repo Repository
	pub  EventPublisher
	log  *logger.Logger
}

func NewService(repo Repository, pub EventPublisher) *Service {
	return &Service{repo: repo, pub: pub, log: logger.New("order-service")}
}

// Create validates a submitted cart against the menu and the known
// tables, then persists the order with server-side prices.
func (s *Service) Create(ctx context.Context, req domain.SubmitOrderRequest) (domain.Order, error) {
	if req.RestaurantID <= 0 {
		return domain.Order{}, ValidationError{Field: "restaurant_id", Message: "restaurant is required"}
	}
	if req.TableNumber == "" {
		return domain.Order{}, ValidationError{Field: "table_number", Message: "table number is required"}
	}
	if len(req.Items) == 0 {
		return domain.Order{}, ValidationError{Field: "items", Message: "at least one item is required"}
	}
	ids := make([]int, 0, len(req.Items))
	for _, it := range req.Items {
		if it.Quantity < 1 {
			return domain.Order{}, ValidationError{Field: "items", Message: fmt.Sprintf("invalid quantity for item %d", it.ItemID)}
		}
		ids = append(ids, it.ItemID)
	}

	exists, _, err := s.repo.TableState(ctx, req.RestaurantID, req.TableNumber)
	if err != nil {
		return domain.Order{}, err
	}
	if !exists {
		return domain.Order{}, ValidationError{Field: "table_number", Message: "unknown table"}
	}

	menu, err := s.repo.MenuItems(ctx, req.RestaurantID, ids)
	if err != nil {
		return domain.Order{}, err
	}

	// prices come from the menu, never from the client
	order := domain.Order{
		RestaurantID: req.RestaurantID,
		TableNumber:  req.TableNumber,
		Status:       domain.StatusPending,
	}
	for _, it := range req.Items {
		m, ok := menu[it.ItemID]
		if !ok {
			return domain.Order{}, ValidationError{Field: "items", Message: fmt.Sprintf("unknown menu item %d", it.ItemID)}
		}
		if !m.Available {
			return domain.Order{}, ValidationError{Field: "items", Message: fmt.Sprintf("item %q is not available", m.Name)}
		}
		order.Items = append(order.Items, domain.OrderItem{
			ItemID:   m.ID,
			Name:     m.Name,
			Quantity: it.Quantity,
			Price:    m.Price,
		})
		order.Total += m.Price * float64(it.Quantity)
	}

	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.publish(ctx, mq.KeyOrderCreated, domain.OrderCreatedEvent{
		OrderID:      created.ID,
		RestaurantID: created.RestaurantID,
		TableNumber:  created.TableNumber,
		Items:        eventItems(created.Items),
		Total:        created.Total,
		CreatedAt:    created.CreatedAt,
	})
	s.log.Info("order_created", map[string]any{
		"order_id": created.ID, "restaurant_id": created.RestaurantID, "total": created.Total,
	})
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int) (domain.Order, error) {
	o, found, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !found {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, f domain.OrderFilter) (domain.OrderPage, error) {
	if f.Status != nil && !f.Status.Valid() {
		return domain.OrderPage{}, ValidationError{Field: "status", Message: "unknown status"}
	}
	return s.repo.ListOrders(ctx, f)
}

// UpdateStatus applies a staff transition, enforcing the state machine
// server-side.
func (s *Service) UpdateStatus(ctx context.Context, id int, next domain.OrderStatus, changedBy string) (domain.Order, error) {
	if !next.Valid() {
		return domain.Order{}, ValidationError{Field: "status", Message: "unknown status"}
	}
	cur, found, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !found {
		return domain.Order{}, ErrNotFound
	}
	if !cur.Status.CanTransition(next) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, cur.Status, next)
	}
	if err := s.repo.UpdateStatus(ctx, id, next, changedBy); err != nil {
		return domain.Order{}, fmt.Errorf("update status: %w", err)
	}

	s.publish(ctx, mq.KeyOrderStatusChanged, domain.OrderStatusChangedEvent{
		OrderID:      id,
		RestaurantID: cur.RestaurantID,
		From:         cur.Status,
		To:           next,
		ChangedBy:    changedBy,
		ChangedAt:    time.Now().UTC(),
	})
	s.log.Info("order_status_changed", map[string]any{
		"order_id": id, "from": cur.Status, "to": next, "changed_by": changedBy,
	})

	cur.Status = next
	return cur, nil
}

func (s *Service) Stats(ctx context.Context, restaurantID int) (domain.Stats, error) {
	return s.repo.Stats(ctx, restaurantID)
}

// TableAvailable reports whether a table is known and has no open order.
func (s *Service) TableAvailable(ctx context.Context, restaurantID int, number string) (domain.TableAvailability, error) {
	exists, occupied, err := s.repo.TableState(ctx, restaurantID, number)
	if err != nil {
		return domain.TableAvailability{}, err
	}
	return domain.TableAvailability{
		TableNumber: number,
		Available:   exists && !occupied,
	}, nil
}

// publish is fire-and-forget: the order is already committed, a broker
// hiccup only delays notifications.
func (s *Service) publish(ctx context.Context, key string, event any) {
	if s.pub == nil {
		return
	}
	body, err := json.Marshal(event)
	if err != nil {
		s.log.Error("event_marshal_failed", err, map[string]any{"key": key})
		return
	}
	if err := s.pub.PublishEvent(ctx, key, body); err != nil {
		s.log.Error("event_publish_failed", err, map[string]any{"key": key})
	}
}

func eventItems(items []domain.OrderItem) []domain.EventItem {
	out := make([]domain.EventItem, 0, len(items))
	for _, it := range items {
		out = append(out, domain.EventItem{Name: it.Name, Quantity: it.Quantity, Price: it.Price})
	}
	return out
}
