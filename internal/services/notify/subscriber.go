package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	"tableside/internal/common/db"
	"tableside/internal/common/logger"
	"tableside/internal/common/mq"
	"tableside/internal/domain"
)

// ContactLookup resolves the address that receives notifications for a
// restaurant.
type ContactLookup interface {
	ContactEmail(ctx context.Context, restaurantID int) (string, error)
}

type PGContactLookup struct {
	conn *db.Conn
}

func NewPGContactLookup(conn *db.Conn) *PGContactLookup { return &PGContactLookup{conn: conn} }

func (l *PGContactLookup) ContactEmail(ctx context.Context, restaurantID int) (string, error) {
	var email string
	err := l.conn.QueryRow(ctx,
		`SELECT contact_email FROM restaurants WHERE id = $1`, restaurantID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("restaurant %d not found", restaurantID)
	}
	return email, err
}

type Subscriber struct {
	mq     *mq.Client
	lookup ContactLookup
	sender Sender
	log    *logger.Logger
}

func NewSubscriber(client *mq.Client, lookup ContactLookup, sender Sender) *Subscriber {
	return &Subscriber{mq: client, lookup: lookup, sender: sender, log: logger.New("notification-service")}
}

// Run consumes order events until the context is cancelled. Malformed
// payloads are dropped; delivery failures are requeued once.
func (s *Subscriber) Run(ctx context.Context) error {
	deliveries, err := s.mq.Consume(mq.NotificationsQueue, "notification-service", 10)
	if err != nil {
		return fmt.Errorf("consume %s: %w", mq.NotificationsQueue, err)
	}
	s.log.Info("subscriber_started", map[string]any{"queue": mq.NotificationsQueue})

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			s.handle(ctx, d)
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, d amqp.Delivery) {
	err := s.dispatch(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.As(err, new(*json.SyntaxError)), errors.As(err, new(*json.UnmarshalTypeError)):
		s.log.Warn("event_dropped", err, map[string]any{"routing_key": d.RoutingKey})
		_ = d.Nack(false, false)
	default:
		s.log.Error("event_failed", err, map[string]any{"routing_key": d.RoutingKey})
		_ = d.Nack(false, !d.Redelivered)
	}
}

func (s *Subscriber) dispatch(ctx context.Context, key string, body []byte) error {
	switch key {
	case mq.KeyOrderCreated:
		var ev domain.OrderCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return err
		}
		subject, text := renderOrderCreated(ev)
		return s.notify(ctx, ev.RestaurantID, subject, text)
	case mq.KeyOrderStatusChanged:
		var ev domain.OrderStatusChangedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return err
		}
		subject, text := renderStatusChanged(ev)
		return s.notify(ctx, ev.RestaurantID, subject, text)
	default:
		s.log.Debug("event_ignored", map[string]any{"routing_key": key})
		return nil
	}
}

func (s *Subscriber) notify(ctx context.Context, restaurantID int, subject, body string) error {
	to, err := s.lookup.ContactEmail(ctx, restaurantID)
	if err != nil {
		return fmt.Errorf("resolve recipient: %w", err)
	}
	if err := s.sender.Send(to, subject, body); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	s.log.Info("notification_sent", map[string]any{"restaurant_id": restaurantID, "subject": subject})
	return nil
}
