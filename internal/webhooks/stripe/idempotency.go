package stripewebhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/gigbook-backend/pkg/redis"
)

const (
	eventSource = "stripe"

	markerProcessing = "processing"
	markerDone       = "done"

	// DefaultProcessingLease bounds how long a crashed handler can block
	// redelivery of its event.
	DefaultProcessingLease = 5 * time.Minute
)

// Claim is the outcome of trying to take ownership of an event.
type Claim int

const (
	// ClaimAcquired means the caller must process the event and then call
	// Complete or Release.
	ClaimAcquired Claim = iota
	// ClaimInFlight means another delivery of the event is being processed.
	ClaimInFlight
	// ClaimDone means the event was already applied.
	ClaimDone
)

type eventStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	EventKey(source, eventID string) string
}

// IdempotencyGuard tracks Stripe event ids in two phases: a short processing
// lease while a handler runs, then a long-lived done marker.
type IdempotencyGuard struct {
	store eventStore
	ttl   time.Duration
	lease time.Duration
}

// NewIdempotencyGuard builds a guard that remembers applied events for ttl.
func NewIdempotencyGuard(store eventStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("event store is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	lease := DefaultProcessingLease
	if lease > ttl {
		lease = ttl
	}
	return &IdempotencyGuard{store: store, ttl: ttl, lease: lease}, nil
}

// Claim takes the processing lease for eventID or reports who holds it.
func (g *IdempotencyGuard) Claim(ctx context.Context, eventID string) (Claim, error) {
	key, err := g.key(eventID)
	if err != nil {
		return 0, err
	}
	acquired, err := g.store.SetNX(ctx, key, markerProcessing, g.lease)
	if err != nil {
		return 0, fmt.Errorf("claim stripe event: %w", err)
	}
	if acquired {
		return ClaimAcquired, nil
	}
	current, err := g.store.Get(ctx, key)
	switch {
	case redis.IsMiss(err):
		// released between the two calls; let the sender retry
		return ClaimInFlight, nil
	case err != nil:
		return 0, fmt.Errorf("read stripe event marker: %w", err)
	case current == markerDone:
		return ClaimDone, nil
	default:
		return ClaimInFlight, nil
	}
}

// Complete records eventID as applied.
func (g *IdempotencyGuard) Complete(ctx context.Context, eventID string) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	if err := g.store.Set(ctx, key, markerDone, g.ttl); err != nil {
		return fmt.Errorf("mark stripe event done: %w", err)
	}
	return nil
}

// Release drops the processing lease so Stripe's retry is processed again.
// A done marker is never removed.
func (g *IdempotencyGuard) Release(ctx context.Context, eventID string) error {
	key, err := g.key(eventID)
	if err != nil {
		return err
	}
	if _, err := g.store.DelIfValue(ctx, key, markerProcessing); err != nil {
		return fmt.Errorf("release stripe event: %w", err)
	}
	return nil
}

func (g *IdempotencyGuard) key(eventID string) (string, error) {
	if eventID == "" {
		return "", errors.New("event id is required")
	}
	return g.store.EventKey(eventSource, eventID), nil
}
