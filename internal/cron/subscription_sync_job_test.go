package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

type fakeLister struct {
	subs  []models.Subscription
	calls int
}

func (f *fakeLister) ListWithProviderID(_ context.Context, limit, offset int) ([]models.Subscription, error) {
	f.calls++
	if offset >= len(f.subs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(f.subs) {
		end = len(f.subs)
	}
	return f.subs[offset:end], nil
}

type fakeApplier struct {
	states []subscriptions.ProviderState
}

func (f *fakeApplier) ApplyProviderState(_ context.Context, state subscriptions.ProviderState) (*models.Subscription, error) {
	f.states = append(f.states, state)
	return &models.Subscription{UserID: state.UserID}, nil
}

type fakeStripe struct {
	subs map[string]*stripe.Subscription
}

func (f *fakeStripe) GetSubscription(_ context.Context, id string) (*stripe.Subscription, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, errors.New("resource_missing")
	}
	return sub, nil
}

func stripeSub(id string, status stripe.SubscriptionStatus, price string) *stripe.Subscription {
	return &stripe.Subscription{
		ID:     id,
		Status: status,
		Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{
			{Price: &stripe.Price{ID: price}},
		}},
	}
}

func strPtr(v string) *string { return &v }

func TestSubscriptionSyncAppliesEveryLinkedSubscription(t *testing.T) {
	userA, userB, userC := uuid.New(), uuid.New(), uuid.New()
	lister := &fakeLister{subs: []models.Subscription{
		{ID: uuid.New(), UserID: userA, StripeSubscriptionID: strPtr("sub_a")},
		{ID: uuid.New(), UserID: userB, StripeSubscriptionID: strPtr("sub_b")},
		{ID: uuid.New(), UserID: userC, StripeSubscriptionID: strPtr("sub_gone")},
	}}
	applier := &fakeApplier{}
	client := &fakeStripe{subs: map[string]*stripe.Subscription{
		"sub_a": stripeSub("sub_a", stripe.SubscriptionStatusActive, "price_pro"),
		"sub_b": stripeSub("sub_b", stripe.SubscriptionStatusCanceled, "price_premium"),
	}}

	job, err := NewSubscriptionSyncJob(SubscriptionSyncJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "cron-test"}),
		Subscriptions: lister,
		Service:       applier,
		Stripe:        client,
		PriceTiers:    map[string]string{"price_pro": "pro", "price_premium": "premium"},
		BatchSize:     2,
	})
	require.NoError(t, err)
	assert.Equal(t, "subscription-sync", job.Name())

	err = job.Run(context.Background())
	require.Error(t, err, "missing stripe subscription should be reported")
	assert.Contains(t, err.Error(), "sub_gone")

	require.Len(t, applier.states, 2)
	assert.Equal(t, userA, applier.states[0].UserID)
	assert.Equal(t, enums.SubscriptionStatusActive, applier.states[0].Status)
	assert.Equal(t, enums.SubscriptionTierPro, applier.states[0].Tier)
	assert.Equal(t, userB, applier.states[1].UserID)
	assert.Equal(t, enums.SubscriptionStatusCanceled, applier.states[1].Status)
	assert.Equal(t, 2, lister.calls)
}

func TestNewSubscriptionSyncJobValidates(t *testing.T) {
	_, err := NewSubscriptionSyncJob(SubscriptionSyncJobParams{})
	require.Error(t, err)
}
