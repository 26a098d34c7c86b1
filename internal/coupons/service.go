package coupons

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const maxCodeLength = 20

// Service administers coupons.
type Service interface {
	List(ctx context.Context) ([]models.Coupon, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error)
	Create(ctx context.Context, input CouponInput) (*models.Coupon, error)
	Update(ctx context.Context, id uuid.UUID, input CouponInput) (*models.Coupon, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context) ([]models.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) Create(ctx context.Context, input CouponInput) (*models.Coupon, error) {
	coupon := &models.Coupon{}
	if err := applyInput(coupon, input); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, coupon.Code, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		return nil, translateUnique(err, coupon.Code)
	}
	return coupon, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input CouponInput) (*models.Coupon, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyInput(coupon, input); err != nil {
		return nil, err
	}
	if err := s.ensureUniqueCode(ctx, coupon.Code, coupon.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, coupon); err != nil {
		return nil, translateUnique(err, coupon.Code)
	}
	return coupon, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *service) ensureUniqueCode(ctx context.Context, code string, self uuid.UUID) error {
	existing, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if existing.ID == self {
		return nil
	}
	return duplicateCode(code)
}

// applyInput validates the business rules the struct tags cannot express and
// copies the payload onto coupon.
func applyInput(coupon *models.Coupon, input CouponInput) error {
	fields := map[string]string{}

	code := NormalizeCode(input.Code)
	switch {
	case code == "":
		fields["code"] = "is required"
	case len(code) > maxCodeLength:
		fields["code"] = fmt.Sprintf("must be at most %d characters", maxCodeLength)
	}

	kind, err := enums.ParseCouponType(input.Type)
	if err != nil {
		fields["type"] = "must be percentage or fixed"
	}

	if input.Value.IsNegative() {
		fields["value"] = "must be at least 0"
	} else if kind == enums.CouponTypePercentage && input.Value.GreaterThan(hundred) {
		fields["value"] = "percentage cannot exceed 100"
	}
	if input.MinValue != nil && input.MinValue.IsNegative() {
		fields["min_value"] = "must be at least 0"
	}
	if input.MaxUses != nil && *input.MaxUses < 1 {
		fields["max_uses"] = "must be at least 1"
	}
	if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
		fields["valid_until"] = "must be on or after valid_from"
	}

	if len(fields) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
	}

	coupon.Code = code
	coupon.Type = kind
	coupon.Value = input.Value.Round(2)
	coupon.MinValue = decimal.NullDecimal{}
	if input.MinValue != nil {
		coupon.MinValue = decimal.NewNullDecimal(input.MinValue.Round(2))
	}
	coupon.MaxUses = input.MaxUses
	coupon.Active = true
	if input.Active != nil {
		coupon.Active = *input.Active
	}
	coupon.ValidFrom = input.ValidFrom
	coupon.ValidUntil = input.ValidUntil
	return nil
}

func translateUnique(err error, code string) error {
	if db.IsUniqueViolation(err, "") {
		return duplicateCode(code)
	}
	return err
}

func duplicateCode(code string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists").
		WithDetails(map[string]string{"code": strings.ToUpper(code)})
}
