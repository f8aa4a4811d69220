package stripe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/gigbook-backend/pkg/config"
)

func TestNewClientValidatesKeysAgainstMode(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		cfg  config.StripeConfig
	}{
		{"live key in test mode", config.StripeConfig{APIKey: "sk_live_123", Secret: "whsec", Env: "test"}},
		{"test key in live mode", config.StripeConfig{APIKey: "rk_test_123", Secret: "whsec", Env: "live"}},
		{"missing secret", config.StripeConfig{APIKey: "sk_test_123", Env: "test"}},
		{"missing key", config.StripeConfig{Secret: "whsec", Env: "test"}},
		{"unknown mode", config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec", Env: "staging"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewClient(ctx, tc.cfg, nil)
			require.Error(t, err)
		})
	}

	client, err := NewClient(ctx, config.StripeConfig{APIKey: "rk_test_123", Secret: "whsec", Env: " "}, nil)
	require.NoError(t, err)
	require.Equal(t, ModeTest, client.Mode())
	require.Equal(t, webhook.DefaultTolerance, client.tolerance)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode(" LIVE ")
	require.NoError(t, err)
	require.Equal(t, ModeLive, mode)

	_, err = ParseMode("sandbox")
	require.Error(t, err)
}

func TestConstructEventChecksSignatureAndAge(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_1"}}}`)
	client, err := NewClient(context.Background(), config.StripeConfig{
		APIKey:           "sk_test_123",
		Secret:           secret,
		WebhookTolerance: time.Minute,
	}, nil)
	require.NoError(t, err)

	fresh := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	event, err := client.ConstructEvent(fresh.Payload, fresh.Header)
	require.NoError(t, err)
	require.Equal(t, "customer.subscription.updated", string(event.Type))

	stale := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now().Add(-10 * time.Minute),
	})
	_, err = client.ConstructEvent(stale.Payload, stale.Header)
	require.Error(t, err)

	_, err = VerifyEvent(fresh.Payload, fresh.Header, "wrong")
	require.Error(t, err)
}

func TestNilClientRefusesCalls(t *testing.T) {
	var client *Client
	_, err := client.ConstructEvent([]byte("{}"), "")
	require.True(t, errors.Is(err, ErrSecretRequired))
	_, err = client.GetSubscription(context.Background(), "sub_1")
	require.True(t, errors.Is(err, ErrAPIKeyRequired))
}
