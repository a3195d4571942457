package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/experience-booking/internal/metrics"
	"github.com/iliyamo/experience-booking/internal/model"
	"github.com/iliyamo/experience-booking/internal/repository"
)

// PromoStore is the read side of the promo table.
type PromoStore interface {
	GetActiveByCode(ctx context.Context, code string) (*model.Promo, error)
}

// PromoResult is the outcome of a successful validation.
type PromoResult struct {
	Code          string             `json:"-"`
	Discount      float64            `json:"discount"`
	DiscountType  model.DiscountType `json:"discountType"`
	DiscountValue float64            `json:"discountValue"`
}

// PromoService validates promo codes.  Validation never changes stored
// state.
type PromoService struct {
	promos PromoStore
	log    logrus.FieldLogger
}

// NewPromoService returns a PromoService backed by promos.
func NewPromoService(promos PromoStore, log logrus.FieldLogger) *PromoService {
	if promos == nil {
		panic("nil promo store passed to NewPromoService")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &PromoService{promos: promos, log: log}
}

// Validate checks code against the active promos and computes the
// discount it grants on amount.  Percentage promos yield amount*value/100;
// flat promos yield value regardless of amount.
func (s *PromoService) Validate(ctx context.Context, code string, amount float64) (*PromoResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		metrics.PromoValidations.WithLabelValues("missing").Inc()
		return nil, validationError("Promo code required")
	}

	p, err := s.promos.GetActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrPromoNotFound) {
			metrics.PromoValidations.WithLabelValues("invalid").Inc()
			return nil, notFoundError("Invalid promo code")
		}
		s.log.WithError(err).WithField("code", code).Error("promo lookup failed")
		return nil, storageError("Failed to validate promo code", err)
	}
	if p.Exhausted() {
		metrics.PromoValidations.WithLabelValues("exhausted").Inc()
		return nil, &Error{Kind: ErrLimitExceeded, Message: "Promo code limit exceeded"}
	}

	metrics.PromoValidations.WithLabelValues("valid").Inc()
	return &PromoResult{
		Code:          p.Code,
		Discount:      discountFor(p, amount),
		DiscountType:  p.DiscountType,
		DiscountValue: p.DiscountValue,
	}, nil
}

func discountFor(p *model.Promo, amount float64) float64 {
	value := decimal.NewFromFloat(p.DiscountValue)
	if p.DiscountType == model.DiscountPercentage {
		return decimal.NewFromFloat(amount).Mul(value).Div(decimal.NewFromInt(100)).InexactFloat64()
	}
	return value.InexactFloat64()
}
