package subscriptions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

type userSubscriptionWriter interface {
	UpdateSubscriptionWithTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, tier enums.SubscriptionTier, active bool) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the subscription surface.
type Service interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (*SubscriptionDTO, error)
	Features(ctx context.Context, userID uuid.UUID) (*FeaturesDTO, error)
	ApplyProviderState(ctx context.Context, state ProviderState) (*models.Subscription, error)
	ChangeTier(ctx context.Context, userID uuid.UUID, tier enums.SubscriptionTier) (*models.Subscription, error)
}

// ServiceParams groups dependencies for the subscription service.
type ServiceParams struct {
	Repo              Repository
	Users             userSubscriptionWriter
	TransactionRunner txRunner
	Logger            *logger.Logger
}

type service struct {
	repo     Repository
	users    userSubscriptionWriter
	txRunner txRunner
	logg     *logger.Logger
}

// NewService builds a subscription service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscription repo required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repo required")
	}
	if params.TransactionRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		users:    params.Users,
		txRunner: params.TransactionRunner,
		logg:     params.Logger,
	}, nil
}

func (s *service) GetForUser(ctx context.Context, userID uuid.UUID) (*SubscriptionDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	sub, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return FromModel(sub), nil
}

func (s *service) Features(ctx context.Context, userID uuid.UUID) (*FeaturesDTO, error) {
	view, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	tier := view.Tier
	if !view.HasActiveSubscription {
		tier = enums.SubscriptionTierFree
	}
	return &FeaturesDTO{Tier: tier, Features: view.Features}, nil
}

// ApplyProviderState upserts the user's subscription from billing-provider data
// and mirrors the resulting tier and active flag onto the user.
func (s *service) ApplyProviderState(ctx context.Context, state ProviderState) (*models.Subscription, error) {
	if !state.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription status is invalid")
	}

	var result *models.Subscription
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		sub, err := repo.FindByStripeID(ctx, state.StripeSubscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription by provider id")
		}
		if sub == nil && state.UserID != uuid.Nil {
			if sub, err = repo.FindByUserID(ctx, state.UserID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription by user")
			}
		}

		created := false
		if sub == nil {
			if state.UserID == uuid.Nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "subscription is not linked to a user")
			}
			sub = &models.Subscription{ID: uuid.New(), UserID: state.UserID}
			created = true
		}

		tier := TierOf(sub.Tier, sub.Plan)
		if state.Tier != "" {
			tier = NormalizeTier(string(state.Tier))
		}
		applyState(sub, state)
		applyTier(sub, tier)

		if created {
			err = repo.Create(ctx, sub)
		} else {
			err = repo.Save(ctx, sub)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
		}

		if err := s.mirrorToUser(ctx, tx, sub); err != nil {
			return err
		}
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id": result.UserID.String(),
			"status":  result.Status,
			"tier":    TierOf(result.Tier, result.Plan),
		})
		s.logg.Info(logCtx, "subscription synced from provider")
	}
	return result, nil
}

// ChangeTier moves a user's subscription to a new tier and replaces its feature bundle.
func (s *service) ChangeTier(ctx context.Context, userID uuid.UUID, tier enums.SubscriptionTier) (*models.Subscription, error) {
	normalized, err := enums.ParseSubscriptionTier(string(tier))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid tier")
	}

	var result *models.Subscription
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		sub, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}
		if sub == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscription not found")
		}
		applyTier(sub, normalized)
		if err := repo.Save(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist subscription")
		}
		if err := s.mirrorToUser(ctx, tx, sub); err != nil {
			return err
		}
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) mirrorToUser(ctx context.Context, tx *gorm.DB, sub *models.Subscription) error {
	tier := enums.SubscriptionTierFree
	if sub.HasActiveSubscription {
		tier = TierOf(sub.Tier, sub.Plan)
	}
	if err := s.users.UpdateSubscriptionWithTx(ctx, tx, sub.UserID, tier, sub.HasActiveSubscription); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user subscription flags")
	}
	return nil
}

func applyState(sub *models.Subscription, state ProviderState) {
	sub.Status = state.Status
	sub.HasActiveSubscription = IsActiveStatus(state.Status)
	sub.CancelAtPeriodEnd = state.CancelAtPeriodEnd
	if id := trimmedPtr(state.StripeSubscriptionID); id != nil {
		sub.StripeSubscriptionID = id
	}
	if id := trimmedPtr(state.StripeCustomerID); id != nil {
		sub.StripeCustomerID = id
	}
	if id := trimmedPtr(state.StripePriceID); id != nil {
		sub.StripePriceID = id
	}
	if state.CurrentPeriodStart != nil {
		sub.CurrentPeriodStart = state.CurrentPeriodStart
	}
	if state.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = state.CurrentPeriodEnd
	}
}

// applyTier sets the tier and replaces the feature bundle when the tier
// changed or no bundle is stored yet.
func applyTier(sub *models.Subscription, tier enums.SubscriptionTier) {
	changed := sub.Tier == nil || *sub.Tier != string(tier)
	value := string(tier)
	sub.Tier = &value
	if sub.Plan != nil && enums.SubscriptionTier(*sub.Plan) == enums.SubscriptionTierBasic {
		sub.Plan = &value
	}
	if changed || sub.Features == nil {
		features := FeaturesFor(tier)
		sub.Features = &features
	}
}
