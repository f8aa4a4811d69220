package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

const (
	subscriptionSyncJobName  = "subscription-sync"
	defaultSubscriptionBatch = 100
)

type subscriptionLister interface {
	ListWithProviderID(ctx context.Context, limit, offset int) ([]models.Subscription, error)
}

type providerStateApplier interface {
	ApplyProviderState(ctx context.Context, state subscriptions.ProviderState) (*models.Subscription, error)
}

// SubscriptionSyncJobParams configures the Stripe subscription sync job.
type SubscriptionSyncJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionLister
	Service       providerStateApplier
	Stripe        subscriptions.StripeSubscriptionClient
	PriceTiers    map[string]string
	BatchSize     int
}

type subscriptionSyncJob struct {
	logg       *logger.Logger
	subs       subscriptionLister
	service    providerStateApplier
	stripe     subscriptions.StripeSubscriptionClient
	priceTiers map[string]string
	batchSize  int
}

// NewSubscriptionSyncJob builds a job that re-reads every Stripe-linked
// subscription from Stripe and applies it, repairing missed webhooks.
func NewSubscriptionSyncJob(params SubscriptionSyncJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription repository required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("subscription service required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultSubscriptionBatch
	}
	return &subscriptionSyncJob{
		logg:       params.Logger,
		subs:       params.Subscriptions,
		service:    params.Service,
		stripe:     params.Stripe,
		priceTiers: params.PriceTiers,
		batchSize:  batch,
	}, nil
}

func (j *subscriptionSyncJob) Name() string { return subscriptionSyncJobName }

func (j *subscriptionSyncJob) Run(ctx context.Context) error {
	var errs error
	scanned, synced := 0, 0
	for offset := 0; ; offset += j.batchSize {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		batch, err := j.subs.ListWithProviderID(ctx, j.batchSize, offset)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list subscriptions: %w", err))
		}
		for i := range batch {
			scanned++
			if err := j.sync(ctx, &batch[i]); err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			synced++
		}
		if len(batch) < j.batchSize {
			break
		}
	}
	reportCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned": scanned,
		"synced":  synced,
		"failed":  len(multierr.Errors(errs)),
	})
	j.logg.Info(reportCtx, "subscription sync complete")
	return errs
}

func (j *subscriptionSyncJob) sync(ctx context.Context, stored *models.Subscription) error {
	if stored.StripeSubscriptionID == nil {
		return nil
	}
	stripeID := *stored.StripeSubscriptionID
	remote, err := j.stripe.GetSubscription(ctx, stripeID)
	if err != nil {
		return fmt.Errorf("fetch stripe subscription %s: %w", stripeID, err)
	}
	state, err := subscriptions.StateFromStripe(remote, j.priceTiers)
	if err != nil {
		return fmt.Errorf("map stripe subscription %s: %w", stripeID, err)
	}
	if state.UserID == uuid.Nil {
		state.UserID = stored.UserID
	}
	if _, err := j.service.ApplyProviderState(ctx, state); err != nil {
		return fmt.Errorf("apply stripe subscription %s: %w", stripeID, err)
	}
	return nil
}
