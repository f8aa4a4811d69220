package stripewebhook

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/gigbook-backend/internal/paymentmethods"
	"github.com/angelmondragon/gigbook-backend/internal/subscriptions"
	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
	"github.com/angelmondragon/gigbook-backend/pkg/logger"
)

type subscriptionApplier interface {
	ApplyProviderState(ctx context.Context, state subscriptions.ProviderState) (*models.Subscription, error)
}

type customerLookup interface {
	FindByStripeCustomerID(ctx context.Context, customerID string) (*models.Subscription, error)
}

type paymentMethodStore interface {
	Add(ctx context.Context, userID uuid.UUID, input paymentmethods.AddInput) (*paymentmethods.PaymentMethodDTO, error)
	DetachByStripeID(ctx context.Context, stripeID string) error
}

// ServiceParams groups dependencies for the Stripe webhook handler.
type ServiceParams struct {
	Subscriptions  subscriptionApplier
	Customers      customerLookup
	PaymentMethods paymentMethodStore
	StripeClient   subscriptions.StripeSubscriptionClient
	PriceTiers     map[string]string
	Logger         *logger.Logger
}

// Service applies verified Stripe events to local subscription and payment
// method state.
type Service struct {
	subs       subscriptionApplier
	customers  customerLookup
	methods    paymentMethodStore
	stripe     subscriptions.StripeSubscriptionClient
	priceTiers map[string]string
	logg       *logger.Logger
}

// NewService constructs the webhook handler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Subscriptions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "subscription service required")
	}
	if params.Customers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "customer lookup required")
	}
	if params.PaymentMethods == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method service required")
	}
	if params.StripeClient == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stripe client required")
	}
	return &Service{
		subs:       params.Subscriptions,
		customers:  params.Customers,
		methods:    params.PaymentMethods,
		stripe:     params.StripeClient,
		priceTiers: params.PriceTiers,
		logg:       params.Logger,
	}, nil
}

// HandleEvent dispatches on event type. Unhandled types are acknowledged.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCustomerSubscriptionCreated,
		stripe.EventTypeCustomerSubscriptionUpdated,
		stripe.EventTypeCustomerSubscriptionDeleted,
		stripe.EventTypeCustomerSubscriptionPaused,
		stripe.EventTypeCustomerSubscriptionResumed:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.applySubscription(ctx, &sub)

	case stripe.EventTypeInvoicePaid, stripe.EventTypeInvoicePaymentFailed:
		subscriptionID := invoiceSubscriptionID(event)
		if subscriptionID == "" {
			return nil
		}
		sub, err := s.stripe.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch stripe subscription")
		}
		return s.applySubscription(ctx, sub)

	case stripe.EventTypePaymentMethodAttached:
		var pm stripe.PaymentMethod
		if err := json.Unmarshal(event.Data.Raw, &pm); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment method event")
		}
		return s.attachPaymentMethod(ctx, &pm)

	case stripe.EventTypePaymentMethodDetached:
		var pm stripe.PaymentMethod
		if err := json.Unmarshal(event.Data.Raw, &pm); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment method event")
		}
		return s.methods.DetachByStripeID(ctx, pm.ID)

	default:
		return nil
	}
}

func (s *Service) applySubscription(ctx context.Context, sub *stripe.Subscription) error {
	state, err := subscriptions.StateFromStripe(sub, s.priceTiers)
	if err != nil {
		return err
	}
	if state.UserID == uuid.Nil && state.StripeCustomerID != "" {
		existing, err := s.customers.FindByStripeCustomerID(ctx, state.StripeCustomerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription by customer")
		}
		if existing != nil {
			state.UserID = existing.UserID
		}
	}
	_, err = s.subs.ApplyProviderState(ctx, state)
	return err
}

// attachPaymentMethod stores a method attached to a known customer. Methods
// for customers without a local user are skipped.
func (s *Service) attachPaymentMethod(ctx context.Context, pm *stripe.PaymentMethod) error {
	userID, err := s.userForPaymentMethod(ctx, pm)
	if err != nil {
		return err
	}
	if userID == uuid.Nil {
		s.logInfo(ctx, "stripe.payment_method_unlinked", pm.ID)
		return nil
	}
	_, err = s.methods.Add(ctx, userID, paymentmethods.InputFromStripe(pm))
	if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		return nil
	}
	return err
}

func (s *Service) userForPaymentMethod(ctx context.Context, pm *stripe.PaymentMethod) (uuid.UUID, error) {
	if raw := strings.TrimSpace(pm.Metadata[subscriptions.MetadataUserID]); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user_id metadata")
		}
		return id, nil
	}
	if pm.Customer == nil || pm.Customer.ID == "" {
		return uuid.Nil, nil
	}
	existing, err := s.customers.FindByStripeCustomerID(ctx, pm.Customer.ID)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup subscription by customer")
	}
	if existing == nil {
		return uuid.Nil, nil
	}
	return existing.UserID, nil
}

func invoiceSubscriptionID(event *stripe.Event) string {
	if id := event.GetObjectValue("subscription"); id != "" {
		return id
	}
	return event.GetObjectValue("parent", "subscription_details", "subscription")
}

func (s *Service) logInfo(ctx context.Context, msg, paymentMethodID string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithField(ctx, "payment_method_id", paymentMethodID), msg)
}
