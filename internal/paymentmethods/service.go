package paymentmethods

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/angelmondragon/gigbook-backend/pkg/db"
	"github.com/angelmondragon/gigbook-backend/pkg/db/models"
	"github.com/angelmondragon/gigbook-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

// Service manages a user's saved payment methods. At most one active method
// per user is the default after any operation.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]PaymentMethodDTO, error)
	Add(ctx context.Context, userID uuid.UUID, input AddInput) (*PaymentMethodDTO, error)
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*PaymentMethodDTO, error)
	Deactivate(ctx context.Context, userID, id uuid.UUID) error
	DetachByStripeID(ctx context.Context, stripeID string) error
}

// AddInput captures a payment method already vaulted with Stripe.
type AddInput struct {
	StripePaymentMethodID string `json:"stripePaymentMethodId" validate:"required"`
	Type                  string `json:"type" validate:"omitempty,oneof=card bank_account us_bank_account"`
	CardBrand             string `json:"cardBrand,omitempty"`
	CardLast4             string `json:"cardLast4,omitempty" validate:"omitempty,len=4,numeric"`
	CardExpMonth          int    `json:"cardExpMonth,omitempty" validate:"omitempty,min=1,max=12"`
	CardExpYear           int    `json:"cardExpYear,omitempty" validate:"omitempty,min=2000"`
	IsDefault             bool   `json:"isDefault"`
}

// InputFromStripe maps a Stripe payment method onto AddInput.
func InputFromStripe(pm *stripe.PaymentMethod) AddInput {
	if pm == nil {
		return AddInput{}
	}
	input := AddInput{
		StripePaymentMethodID: pm.ID,
		Type:                  string(pm.Type),
	}
	if pm.Card != nil {
		input.CardBrand = string(pm.Card.Brand)
		input.CardLast4 = pm.Card.Last4
		input.CardExpMonth = int(pm.Card.ExpMonth)
		input.CardExpYear = int(pm.Card.ExpYear)
	}
	return input
}

// ServiceParams groups dependencies for the payment method service.
type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo     Repository
	txRunner txRunner
}

// NewService constructs a payment method service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment method repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &service{repo: params.Repo, txRunner: params.TransactionRunner}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]PaymentMethodDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	methods, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	out := make([]PaymentMethodDTO, 0, len(methods))
	for i := range methods {
		out = append(out, FromModel(&methods[i]))
	}
	return out, nil
}

// Add stores a Stripe payment method. The user's first active method always
// becomes the default.
func (s *service) Add(ctx context.Context, userID uuid.UUID, input AddInput) (*PaymentMethodDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	stripeID := strings.TrimSpace(input.StripePaymentMethodID)
	if stripeID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stripe payment method id is required")
	}
	methodType := enums.PaymentMethodTypeCard
	if raw := strings.TrimSpace(input.Type); raw != "" {
		parsed, err := enums.ParsePaymentMethodType(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method type")
		}
		methodType = parsed
	}

	method := &models.PaymentMethod{
		UserID:                userID,
		StripePaymentMethodID: stripeID,
		Type:                  methodType,
		CardBrand:             optionalString(input.CardBrand),
		CardLast4:             optionalString(input.CardLast4),
		CardExpMonth:          optionalInt(input.CardExpMonth),
		CardExpYear:           optionalInt(input.CardExpYear),
		IsActive:              true,
	}

	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ListActive(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
		}
		hasDefault := false
		for _, m := range existing {
			if m.IsDefault {
				hasDefault = true
				break
			}
		}
		method.IsDefault = input.IsDefault || !hasDefault
		if method.IsDefault && hasDefault {
			if err := repo.ClearDefault(ctx, userID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default payment method")
			}
		}
		if err := repo.Create(ctx, method); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "payment method already saved")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist payment method")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(method)
	return &dto, nil
}

func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*PaymentMethodDTO, error) {
	var result *models.PaymentMethod
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		method, err := loadActive(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		if err := repo.ClearDefault(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear default payment method")
		}
		if err := repo.MarkDefault(ctx, method.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default payment method")
		}
		method.IsDefault = true
		result = method
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func (s *service) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		method, err := loadActive(ctx, repo, userID, id)
		if err != nil {
			return err
		}
		return deactivate(ctx, repo, method)
	})
}

// DetachByStripeID deactivates the method Stripe reports as detached. Unknown
// ids are ignored.
func (s *service) DetachByStripeID(ctx context.Context, stripeID string) error {
	stripeID = strings.TrimSpace(stripeID)
	if stripeID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe payment method id is required")
	}
	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		method, err := repo.FindByStripeID(ctx, stripeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
		}
		if !method.IsActive {
			return nil
		}
		return deactivate(ctx, repo, method)
	})
}

// deactivate retires the method and, when it was the default, promotes the
// user's most recent remaining active method.
func deactivate(ctx context.Context, repo Repository, method *models.PaymentMethod) error {
	if err := repo.Deactivate(ctx, method.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate payment method")
	}
	if !method.IsDefault {
		return nil
	}
	next, err := repo.MostRecentActive(ctx, method.UserID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replacement payment method")
	}
	if next == nil {
		return nil
	}
	if err := repo.MarkDefault(ctx, next.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "promote payment method")
	}
	return nil
}

func loadActive(ctx context.Context, repo Repository, userID, id uuid.UUID) (*models.PaymentMethod, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id and payment method id are required")
	}
	method, err := repo.FindForUser(ctx, userID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if !method.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
	}
	return method, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func optionalInt(value int) *int {
	if value == 0 {
		return nil
	}
	return &value
}
