package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/gigbook-backend/pkg/config"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

// Mode is the Stripe account mode a key belongs to.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

// keyPrefixes lists the secret and restricted key prefixes accepted per mode.
var keyPrefixes = map[Mode][]string{
	ModeTest: {"sk_test_", "rk_test_"},
	ModeLive: {"sk_live_", "rk_live_"},
}

var (
	ErrAPIKeyRequired = errors.New("stripe api key is required")
	ErrSecretRequired = errors.New("stripe webhook secret is required")
	errUnknownMode    = fmt.Errorf("stripe environment must be %q or %q", ModeTest, ModeLive)
)

// Client holds the Stripe API client and the webhook signing settings.
type Client struct {
	api       *stripe.Client
	mode      Mode
	secret    string
	tolerance time.Duration
}

// NewClient validates the configured key against the mode and builds an API
// client. Nothing is sent to Stripe here.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	mode, err := ParseMode(cfg.Environment())
	if err != nil {
		return nil, err
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if !mode.accepts(apiKey) {
		return nil, fmt.Errorf("stripe %s mode requires a key starting with %s", mode, strings.Join(keyPrefixes[mode], " or "))
	}

	tolerance := cfg.WebhookTolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "stripe_mode", string(mode)), "stripe client ready")
	}
	return &Client{
		api:       stripe.NewClient(apiKey),
		mode:      mode,
		secret:    secret,
		tolerance: tolerance,
	}, nil
}

// ParseMode normalizes a configured environment name; blank means test.
func ParseMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	if mode == "" {
		return ModeTest, nil
	}
	if _, ok := keyPrefixes[mode]; !ok {
		return "", errUnknownMode
	}
	return mode, nil
}

func (m Mode) accepts(key string) bool {
	for _, prefix := range keyPrefixes[m] {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func (c *Client) Mode() Mode {
	if c == nil {
		return ""
	}
	return c.mode
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
func (c *Client) ConstructEvent(payload []byte, signatureHeader string) (stripe.Event, error) {
	if c == nil || c.secret == "" {
		return stripe.Event{}, ErrSecretRequired
	}
	return verify(payload, signatureHeader, c.secret, c.tolerance)
}

// VerifyEvent checks a webhook payload against secret with the default
// timestamp tolerance.
func VerifyEvent(payload []byte, signatureHeader, secret string) (stripe.Event, error) {
	return verify(payload, signatureHeader, secret, webhook.DefaultTolerance)
}

func verify(payload []byte, header, secret string, tolerance time.Duration) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		Tolerance:                tolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

// GetSubscription fetches the current state of a subscription.
func (c *Client) GetSubscription(ctx context.Context, id string) (*stripe.Subscription, error) {
	if c == nil || c.api == nil {
		return nil, ErrAPIKeyRequired
	}
	return c.api.V1Subscriptions.Retrieve(ctx, id, nil)
}
