package push

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/9ssi7/exponent"

	"github.com/angelmondragon/gigbook-backend/pkg/config"
)

type stubPublisher struct {
	msgs    []*exponent.Message
	tickets []*exponent.MessageResponse
	err     error
}

func (s *stubPublisher) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	s.msgs = append(s.msgs, msgs...)
	return s.tickets, s.err
}

func decodeTickets(t *testing.T, body string) []*exponent.MessageResponse {
	t.Helper()
	var tickets []*exponent.MessageResponse
	if err := json.Unmarshal([]byte(body), &tickets); err != nil {
		t.Fatalf("decode tickets: %v", err)
	}
	return tickets
}

func TestNewReturnsDisabledWhenNotConfigured(t *testing.T) {
	sender := New(config.PushConfig{})
	if _, ok := sender.(Disabled); !ok {
		t.Fatalf("expected Disabled sender, got %T", sender)
	}
	if sender.Enabled() {
		t.Fatalf("disabled sender must report not enabled")
	}
	if err := sender.Send(context.Background(), Notification{Tokens: []string{"x"}}); err != nil {
		t.Fatalf("disabled send should be a no-op, got %v", err)
	}
}

func TestExpoSendBuildsOneMessagePerToken(t *testing.T) {
	pub := &stubPublisher{}
	sender := &Expo{client: pub}

	err := sender.Send(context.Background(), Notification{
		Tokens: []string{"ExponentPushToken[a]", " ", "ExponentPushToken[b]"},
		Title:  "New review",
		Body:   "You received a 5 star review",
		Data:   map[string]string{"type": "review"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(pub.msgs))
	}
	if got := *pub.msgs[1].To[0]; got != exponent.Token("ExponentPushToken[b]") {
		t.Fatalf("unexpected token %s", got)
	}
	if pub.msgs[0].Data["type"] != "review" {
		t.Fatalf("expected data to be forwarded")
	}
}

func TestExpoSendWithoutTokens(t *testing.T) {
	sender := &Expo{client: &stubPublisher{}}
	if err := sender.Send(context.Background(), Notification{}); !errors.Is(err, ErrNoRecipients) {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
}

func TestExpoSendPropagatesPublishError(t *testing.T) {
	sender := &Expo{client: &stubPublisher{err: errors.New("expo down")}}
	if err := sender.Send(context.Background(), Notification{Tokens: []string{"t"}}); err == nil {
		t.Fatalf("expected publish error")
	}
}

func TestExpoSendReportsRejectedTickets(t *testing.T) {
	pub := &stubPublisher{tickets: decodeTickets(t, `[
		{"status":"ok","id":"ticket-a"},
		{"status":"error","message":"\"ExponentPushToken[b]\" is not a registered push notification recipient","details":{"error":"DeviceNotRegistered"}}
	]`)}
	sender := &Expo{client: pub}

	err := sender.Send(context.Background(), Notification{Tokens: []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}})
	if !errors.Is(err, ErrTicketRejected) {
		t.Fatalf("expected ErrTicketRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "DeviceNotRegistered") {
		t.Fatalf("expected the device error code in %q", err.Error())
	}
	if !strings.Contains(err.Error(), "ticket 1") {
		t.Fatalf("expected the failing ticket index in %q", err.Error())
	}
}

func TestExpoSendAcceptsOkTickets(t *testing.T) {
	pub := &stubPublisher{tickets: decodeTickets(t, `[{"status":"ok","id":"ticket-a"}]`)}
	sender := &Expo{client: pub}
	if err := sender.Send(context.Background(), Notification{Tokens: []string{"ExponentPushToken[a]"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
