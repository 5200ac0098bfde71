package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// Notification is the payload published for a single recipient or broadcast.
type Notification struct {
	RecipientID uint              `json:"recipientId,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	SentAt      time.Time         `json:"sentAt"`
}

// SMSMessage is consumed by the SMS gateway listening on SMSSubject.
type SMSMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func UserSubject(tenantID string, userID uint) string {
	return fmt.Sprintf("tenant.%s.user.%d.notification", tenantID, userID)
}

func UserSubjectWildcard(tenantID string) string {
	return fmt.Sprintf("tenant.%s.user.*.notification", tenantID)
}

func BroadcastSubject(tenantID string) string {
	return fmt.Sprintf("tenant.%s.jobs.posted", tenantID)
}

func SMSSubject(tenantID string) string {
	return fmt.Sprintf("tenant.%s.sms.outbound", tenantID)
}

// NatsNotifier publishes notifications through JetStream. A publish only
// succeeds once the stream has acknowledged it, so an error means the
// message was not accepted for delivery.
type NatsNotifier struct {
	js       nats.JetStreamContext
	tenantID string
}

// NewNatsNotifier binds to the stream, creating it on first use.
func NewNatsNotifier(nc *nats.Conn, tenantID string, stream string) (*NatsNotifier, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	if _, err := js.StreamInfo(stream); err != nil {
		if !errors.Is(err, nats.ErrStreamNotFound) {
			return nil, fmt.Errorf("stream info %q: %w", stream, err)
		}
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     stream,
			Subjects: []string{fmt.Sprintf("tenant.%s.>", tenantID)},
			MaxAge:   24 * time.Hour,
		})
		if err != nil {
			return nil, fmt.Errorf("add stream %q: %w", stream, err)
		}
	}

	return &NatsNotifier{js: js, tenantID: tenantID}, nil
}

func (n *NatsNotifier) Notify(ctx context.Context, recipientID uint, msg Notification) error {
	msg.RecipientID = recipientID
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	return n.publish(ctx, UserSubject(n.tenantID, recipientID), msg)
}

func (n *NatsNotifier) Broadcast(ctx context.Context, msg Notification) error {
	msg.RecipientID = 0
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	return n.publish(ctx, BroadcastSubject(n.tenantID), msg)
}

func (n *NatsNotifier) SendSMS(ctx context.Context, phoneNumber string, body string) error {
	return n.publish(ctx, SMSSubject(n.tenantID), SMSMessage{To: phoneNumber, Body: body})
}

func (n *NatsNotifier) publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", subject, err)
	}
	if _, err := n.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}
