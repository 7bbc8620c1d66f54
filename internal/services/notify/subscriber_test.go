package notify

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"tableside/internal/common/mq"
	"tableside/internal/domain"
)

type fakeLookup map[int]string

func (f fakeLookup) ContactEmail(ctx context.Context, restaurantID int) (string, error) {
	email, ok := f[restaurantID]
	if !ok {
		return "", fmt.Errorf("restaurant %d not found", restaurantID)
	}
	return email, nil
}

type recordedMail struct {
	to, subject, body string
}

type fakeSender struct {
	sent []recordedMail
	err  error
}

func (f *fakeSender) Send(to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recordedMail{to, subject, body})
	return nil
}

func TestDispatchOrderCreated(t *testing.T) {
	sender := &fakeSender{}
	sub := NewSubscriber(nil, fakeLookup{7: "patron@resto.fr"}, sender)

	body := []byte(`{
		"order_id": 12, "restaurant_id": 7, "table_number": "T3",
		"items": [{"name": "Pizza", "quantity": 2, "price": 11.5}],
		"total": 23
	}`)
	if err := sub.dispatch(context.Background(), mq.KeyOrderCreated, body); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sender.sent))
	}
	m := sender.sent[0]
	if m.to != "patron@resto.fr" {
		t.Errorf("wrong recipient %q", m.to)
	}
	if !strings.Contains(m.subject, "#12") || !strings.Contains(m.subject, "T3") {
		t.Errorf("subject missing order details: %q", m.subject)
	}
	if !strings.Contains(m.body, "2x Pizza") {
		t.Errorf("body missing line items: %q", m.body)
	}
}

func TestDispatchStatusChanged(t *testing.T) {
	sender := &fakeSender{}
	sub := NewSubscriber(nil, fakeLookup{7: "patron@resto.fr"}, sender)

	ev := domain.OrderStatusChangedEvent{
		OrderID: 12, RestaurantID: 7,
		From: domain.StatusPending, To: domain.StatusInProgress,
		ChangedBy: "marie@resto.fr", ChangedAt: time.Now(),
	}
	body := []byte(fmt.Sprintf(
		`{"order_id":%d,"restaurant_id":%d,"from":"%s","to":"%s","changed_by":"%s","changed_at":"%s"}`,
		ev.OrderID, ev.RestaurantID, ev.From, ev.To, ev.ChangedBy, ev.ChangedAt.Format(time.RFC3339)))

	if err := sub.dispatch(context.Background(), mq.KeyOrderStatusChanged, body); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].subject, "in_progress") {
		t.Errorf("subject missing new status: %q", sender.sent[0].subject)
	}
}

func TestDispatchIgnoresUnknownKey(t *testing.T) {
	sender := &fakeSender{}
	sub := NewSubscriber(nil, fakeLookup{}, sender)

	if err := sub.dispatch(context.Background(), "order.archived", []byte(`{}`)); err != nil {
		t.Fatalf("unknown keys should be ignored, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Error("unknown key produced a mail")
	}
}

func TestDispatchUnknownRestaurantFails(t *testing.T) {
	sender := &fakeSender{}
	sub := NewSubscriber(nil, fakeLookup{}, sender)

	body := []byte(`{"order_id": 1, "restaurant_id": 99, "total": 5}`)
	if err := sub.dispatch(context.Background(), mq.KeyOrderCreated, body); err == nil {
		t.Fatal("expected error for unknown restaurant")
	}
	if len(sender.sent) != 0 {
		t.Error("mail sent despite missing recipient")
	}
}
