// Package push delivers mobile notifications through Expo.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/9ssi7/exponent"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gigbook-backend/pkg/config"
)

// ErrNoRecipients is returned when a notification carries no device tokens.
var ErrNoRecipients = errors.New("push notification has no recipients")

// ErrTicketRejected marks a device the push service accepted the request for
// but refused to deliver to, e.g. DeviceNotRegistered.
var ErrTicketRejected = errors.New("push ticket rejected")

const ticketOK = "ok"

// Notification is a single message fanned out to every listed device token.
type Notification struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, n Notification) error
	Enabled() bool
}

type publisher interface {
	Publish(ctx context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error)
}

// Expo sends notifications through the Expo push service.
type Expo struct {
	client publisher
}

// New returns an Expo sender when push is enabled and Disabled otherwise.
func New(cfg config.PushConfig) Sender {
	if !cfg.Enabled {
		return Disabled{}
	}
	if token := strings.TrimSpace(cfg.AccessToken); token != "" {
		return &Expo{client: exponent.NewClient(exponent.WithAccessToken(token))}
	}
	return &Expo{client: exponent.NewClient()}
}

// Enabled implements Sender.
func (e *Expo) Enabled() bool { return true }

// Send implements Sender.
func (e *Expo) Send(ctx context.Context, n Notification) error {
	msgs := buildMessages(n)
	if len(msgs) == 0 {
		return ErrNoRecipients
	}
	tickets, err := e.client.Publish(ctx, msgs)
	if err != nil {
		return err
	}
	return ticketErrors(tickets)
}

// ticket is the wire shape of an Expo push ticket.
type ticket struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// ticketErrors joins one error per ticket whose status is not ok. Tickets come
// back in message order, one per device token.
func ticketErrors(tickets []*exponent.MessageResponse) error {
	var errs error
	for i, resp := range tickets {
		if resp == nil {
			continue
		}
		raw, err := json.Marshal(resp)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ticket %d: %w", i, err))
			continue
		}
		var t ticket
		if err := json.Unmarshal(raw, &t); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("ticket %d: %w", i, err))
			continue
		}
		if t.Status == "" || t.Status == ticketOK {
			continue
		}
		reason := t.Status
		if code, ok := t.Details["error"].(string); ok && code != "" {
			reason = code
		}
		errs = multierr.Append(errs, fmt.Errorf("%w: ticket %d: %s: %s", ErrTicketRejected, i, reason, t.Message))
	}
	return errs
}

func buildMessages(n Notification) []*exponent.Message {
	msgs := make([]*exponent.Message, 0, len(n.Tokens))
	for _, raw := range n.Tokens {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		token := exponent.Token(raw)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: n.Title,
			Body:  n.Body,
			Data:  n.Data,
		})
	}
	return msgs
}

// Disabled drops every notification. It is used when push is not configured.
type Disabled struct{}

// Enabled implements Sender.
func (Disabled) Enabled() bool { return false }

// Send implements Sender.
func (Disabled) Send(context.Context, Notification) error { return nil }
