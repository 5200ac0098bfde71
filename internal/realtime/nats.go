package realtime

import (
	"encoding/json"
	"fmt"
	"jobmarket/pkg"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBridge subscribes to the notification subjects and pushes messages
// into the Hub.
type NATSBridge struct {
	conn     *nats.Conn
	hub      *Hub
	tenantID string
	logger   zerolog.Logger
	subs     []*nats.Subscription
}

func NewNATSBridge(natsURL, tenantID string, hub *Hub, logger zerolog.Logger) (*NATSBridge, error) {
	nc, err := nats.Connect(natsURL, nats.Name("jobmarket-realtime"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSBridge{conn: nc, hub: hub, tenantID: tenantID, logger: logger}, nil
}

// Subscribe listens on tenant.<tid>.user.*.notification for per-user
// messages and on tenant.<tid>.jobs.posted for broadcasts.
func (b *NATSBridge) Subscribe() error {
	userSubject := pkg.UserSubjectWildcard(b.tenantID)
	sub, err := b.conn.Subscribe(userSubject, func(msg *nats.Msg) {
		userID, err := parseUserIDFromSubject(msg.Subject)
		if err != nil {
			b.logger.Warn().Err(err).Str("subject", msg.Subject).Msg("nats: bad subject")
			return
		}
		if data, ok := b.envelope(msgTypeNotification, msg.Data); ok {
			b.hub.SendToUser(userID, data)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", userSubject, err)
	}
	b.subs = append(b.subs, sub)

	broadcastSubject := pkg.BroadcastSubject(b.tenantID)
	sub, err = b.conn.Subscribe(broadcastSubject, func(msg *nats.Msg) {
		if data, ok := b.envelope(msgTypeJobPosted, msg.Data); ok {
			b.hub.SendToAll(data)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %q: %w", broadcastSubject, err)
	}
	b.subs = append(b.subs, sub)

	b.logger.Info().Str("user", userSubject).Str("broadcast", broadcastSubject).Msg("NATS bridge subscribed")
	return nil
}

func (b *NATSBridge) envelope(msgType string, payload []byte) ([]byte, bool) {
	if !json.Valid(payload) {
		b.logger.Warn().Str("type", msgType).Msg("nats: dropping non-JSON payload")
		return nil, false
	}
	data, err := json.Marshal(outgoingMsg{Type: msgType, Payload: json.RawMessage(payload)})
	if err != nil {
		b.logger.Warn().Err(err).Msg("nats: marshal envelope")
		return nil, false
	}
	return data, true
}

// Close drains the NATS connection.
func (b *NATSBridge) Close() {
	if err := b.conn.Drain(); err != nil {
		b.logger.Warn().Err(err).Msg("nats drain")
	}
}

// parseUserIDFromSubject extracts userID from "tenant.<tid>.user.<userID>.notification"
func parseUserIDFromSubject(subject string) (uint, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 5 || parts[2] != "user" || parts[4] != "notification" {
		return 0, fmt.Errorf("unexpected subject layout %q", subject)
	}
	id, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid user id %q", parts[3])
	}
	return uint(id), nil
}
