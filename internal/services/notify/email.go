package notify

import (
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"tableside/internal/domain"
)

// Sender delivers a rendered notification. The SendGrid client
// satisfies it; tests swap in a recorder.
type Sender interface {
	Send(to, subject, body string) error
}

type SendGridSender struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
}

func NewSendGridSender(apiKey, fromName, fromAddr string) *SendGridSender {
	return &SendGridSender{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (s *SendGridSender) Send(to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromAddr)
	msg := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, body)
	resp, err := s.client.Send(msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

func renderOrderCreated(ev domain.OrderCreatedEvent) (subject, body string) {
	subject = fmt.Sprintf("New order #%d (table %s)", ev.OrderID, ev.TableNumber)

	var b strings.Builder
	fmt.Fprintf(&b, "Order #%d placed at table %s.\n\n", ev.OrderID, ev.TableNumber)
	for _, it := range ev.Items {
		fmt.Fprintf(&b, "  %dx %s - %.2f\n", it.Quantity, it.Name, it.Price)
	}
	fmt.Fprintf(&b, "\nTotal: %.2f\n", ev.Total)
	return subject, b.String()
}

func renderStatusChanged(ev domain.OrderStatusChangedEvent) (subject, body string) {
	subject = fmt.Sprintf("Order #%d is now %s", ev.OrderID, ev.To)
	body = fmt.Sprintf("Order #%d moved from %s to %s by %s at %s.\n",
		ev.OrderID, ev.From, ev.To, ev.ChangedBy, ev.ChangedAt.Format("15:04:05"))
	return subject, body
}
