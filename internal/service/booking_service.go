package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/experience-booking/internal/checkout"
	"github.com/iliyamo/experience-booking/internal/metrics"
	"github.com/iliyamo/experience-booking/internal/model"
	"github.com/iliyamo/experience-booking/internal/queue"
	"github.com/iliyamo/experience-booking/internal/repository"
)

// Pricing modes.
const (
	// PricingClient stores the amounts sent by the caller unchanged.
	PricingClient = "client"
	// PricingServer recomputes amounts from the experience price.
	PricingServer = "server"
)

// maxReferenceAttempts bounds regeneration after a reference collision.
const maxReferenceAttempts = 3

// ExperienceReader resolves the experience a booking targets.
type ExperienceReader interface {
	GetByID(ctx context.Context, id string) (*model.Experience, error)
}

// BookingReader looks bookings up by reference code.
type BookingReader interface {
	GetByReference(ctx context.Context, referenceID string) (*model.Booking, error)
}

// BookingCommitter persists a booking together with its slot decrement.
type BookingCommitter interface {
	Commit(ctx context.Context, b *model.Booking, opts repository.CommitOptions) error
}

// EventPublisher announces committed bookings.
type EventPublisher interface {
	PublishBookingCreated(ctx context.Context, ev queue.BookingCreatedEvent) error
}

// CacheInvalidator drops cached catalog responses.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// BookingDeps wires BookingService.  Events and Cache are optional.
type BookingDeps struct {
	Experiences ExperienceReader
	Bookings    BookingReader
	Committer   BookingCommitter
	Promos      *PromoService
	Events      EventPublisher
	Cache       CacheInvalidator
	Log         logrus.FieldLogger
}

// BookingOptions tunes BookingService behaviour.
type BookingOptions struct {
	PricingMode string
	TaxRate     float64
	// RedeemPromo counts an applied promo against its cap when the booking
	// commits.
	RedeemPromo bool
	// Reference generates reference codes; nil means NewReference.
	Reference ReferenceFunc
}

// BookingService creates and looks up bookings.
type BookingService struct {
	experiences ExperienceReader
	bookings    BookingReader
	committer   BookingCommitter
	promos      *PromoService
	events      EventPublisher
	cache       CacheInvalidator
	log         logrus.FieldLogger
	opts        BookingOptions
}

// NewBookingService returns a BookingService.  Experiences, Bookings,
// Committer and Promos are required.
func NewBookingService(deps BookingDeps, opts BookingOptions) *BookingService {
	if deps.Experiences == nil || deps.Bookings == nil || deps.Committer == nil || deps.Promos == nil {
		panic("nil dependency passed to NewBookingService")
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	if opts.PricingMode == "" {
		opts.PricingMode = PricingClient
	}
	if opts.TaxRate == 0 {
		opts.TaxRate = checkout.DefaultTaxRate
	}
	if opts.Reference == nil {
		opts.Reference = NewReference
	}
	return &BookingService{
		experiences: deps.Experiences,
		bookings:    deps.Bookings,
		committer:   deps.Committer,
		promos:      deps.Promos,
		events:      deps.Events,
		cache:       deps.Cache,
		log:         deps.Log,
		opts:        opts,
	}
}

// CreateBookingInput is the booking request.  Amounts are only trusted in
// client pricing mode.
type CreateBookingInput struct {
	FullName     string   `json:"fullName"`
	Email        string   `json:"email"`
	ExperienceID string   `json:"experienceId"`
	Date         string   `json:"date"`
	Time         string   `json:"time"`
	Quantity     int      `json:"quantity"`
	Subtotal     float64  `json:"subtotal"`
	Taxes        float64  `json:"taxes"`
	Total        float64  `json:"total"`
	PromoCode    *string  `json:"promoCode"`
	Discount     *float64 `json:"discount"`
}

// BookingResult is a committed booking.
type BookingResult struct {
	ReferenceID string
	Booking     *model.Booking
}

// CreateBooking validates the request, reserves the seats and stores the
// booking in one transaction.  On any error nothing is persisted.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*BookingResult, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.ExperienceID = strings.TrimSpace(in.ExperienceID)
	in.Date = strings.TrimSpace(in.Date)
	in.Time = strings.TrimSpace(in.Time)
	if in.FullName == "" || in.Email == "" || in.ExperienceID == "" || in.Date == "" || in.Time == "" || in.Quantity == 0 {
		s.fail("validation")
		return nil, validationError("Missing required fields")
	}
	if in.Quantity < 0 {
		s.fail("validation")
		return nil, validationError("Quantity must be a positive integer")
	}

	exp, err := s.experiences.GetByID(ctx, in.ExperienceID)
	if err != nil {
		if errors.Is(err, repository.ErrExperienceNotFound) {
			s.fail("not_found")
			return nil, notFoundError("Experience not found")
		}
		s.log.WithError(err).WithField("experience", in.ExperienceID).Error("load experience failed")
		s.fail("storage")
		return nil, storageError("Failed to create booking", err)
	}
	slot := exp.FindSlot(in.Time)
	if slot == nil || slot.Available < in.Quantity {
		s.fail("capacity")
		return nil, &Error{Kind: ErrCapacity, Message: "Slot not available"}
	}

	b, err := s.price(ctx, exp, in)
	if err != nil {
		s.fail("promo")
		return nil, err
	}
	redeem := s.opts.RedeemPromo && b.PromoCode != nil

	start := time.Now()
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		ref, err := s.opts.Reference()
		if err != nil {
			s.fail("storage")
			return nil, storageError("Failed to create booking", err)
		}
		b.ID = ""
		b.ReferenceID = ref

		err = s.committer.Commit(ctx, b, repository.CommitOptions{RedeemPromo: redeem})
		switch {
		case err == nil:
			metrics.BookingDuration.Observe(time.Since(start).Seconds())
			s.committed(ctx, b)
			return &BookingResult{ReferenceID: b.ReferenceID, Booking: b}, nil
		case errors.Is(err, repository.ErrDuplicateReference):
			s.log.WithFields(logrus.Fields{"reference": ref, "attempt": attempt}).Warn("reference collision, regenerating")
			continue
		case errors.Is(err, repository.ErrSlotUnavailable):
			s.fail("capacity")
			return nil, &Error{Kind: ErrCapacity, Message: "Slot not available", Err: err}
		case errors.Is(err, repository.ErrPromoExhausted):
			s.fail("promo")
			return nil, &Error{Kind: ErrLimitExceeded, Message: "Promo code limit exceeded", Err: err}
		default:
			s.log.WithError(err).WithField("experience", exp.ID).Error("commit booking failed")
			s.fail("storage")
			return nil, storageError("Failed to create booking", err)
		}
	}
	s.fail("storage")
	return nil, storageError("Failed to create booking", errors.New("could not allocate a unique reference"))
}

// price builds the booking record with its amounts.  In client mode the
// caller's amounts are kept; a promo is only checked when it is going to
// be redeemed.  In server mode the amounts come from checkout.
func (s *BookingService) price(ctx context.Context, exp *model.Experience, in CreateBookingInput) (*model.Booking, error) {
	b := &model.Booking{
		FullName:       in.FullName,
		Email:          in.Email,
		ExperienceID:   exp.ID,
		ExperienceName: exp.Name,
		Date:           in.Date,
		Time:           in.Time,
		Quantity:       in.Quantity,
	}
	var code string
	if in.PromoCode != nil {
		code = strings.ToUpper(strings.TrimSpace(*in.PromoCode))
	}

	if s.opts.PricingMode != PricingServer {
		b.Subtotal, b.Taxes, b.Total = in.Subtotal, in.Taxes, in.Total
		b.Discount = in.Discount
		if code != "" {
			b.PromoCode = &code
			if s.opts.RedeemPromo {
				if _, err := s.promos.Validate(ctx, code, in.Subtotal); err != nil {
					return nil, err
				}
			}
		}
		return b, nil
	}

	draft := checkout.Draft{Price: exp.Price, Quantity: in.Quantity}
	if code != "" {
		subtotal := draft.Quote(s.opts.TaxRate).Subtotal
		res, err := s.promos.Validate(ctx, code, subtotal)
		if err != nil {
			return nil, err
		}
		draft.Discount = res.Discount
	}
	q := draft.Quote(s.opts.TaxRate)
	b.Subtotal, b.Taxes, b.Total = q.Subtotal, q.Taxes, q.Total
	if code != "" {
		discount := q.Discount
		b.PromoCode = &code
		b.Discount = &discount
	}
	return b, nil
}

// committed runs the post-commit side effects.  None of them can fail the
// booking.
func (s *BookingService) committed(ctx context.Context, b *model.Booking) {
	metrics.BookingsCreated.Inc()
	metrics.SeatsBooked.Add(float64(b.Quantity))
	s.log.WithFields(logrus.Fields{
		"reference":  b.ReferenceID,
		"experience": b.ExperienceID,
		"date":       b.Date,
		"time":       b.Time,
		"quantity":   b.Quantity,
	}).Info("booking created")

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if s.events != nil {
		if err := s.events.PublishBookingCreated(bg, eventFor(b)); err != nil {
			metrics.EventPublishFailures.Inc()
			s.log.WithError(err).WithField("reference", b.ReferenceID).Warn("publish booking event failed")
		}
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(bg); err != nil {
			s.log.WithError(err).Warn("catalog cache invalidation failed")
		}
	}
}

func (s *BookingService) fail(reason string) {
	metrics.BookingFailures.WithLabelValues(reason).Inc()
}

func eventFor(b *model.Booking) queue.BookingCreatedEvent {
	ev := queue.BookingCreatedEvent{
		BookingID:      b.ID,
		ReferenceID:    b.ReferenceID,
		ExperienceID:   b.ExperienceID,
		ExperienceName: b.ExperienceName,
		Date:           b.Date,
		Time:           b.Time,
		Quantity:       b.Quantity,
		FullName:       b.FullName,
		Email:          b.Email,
		Total:          b.Total,
		Discount:       b.Discount,
		CreatedAt:      b.CreatedAt.UTC().Format(time.RFC3339),
	}
	if b.PromoCode != nil {
		ev.PromoCode = *b.PromoCode
	}
	return ev
}

// GetBooking returns the booking with the given reference code.
func (s *BookingService) GetBooking(ctx context.Context, referenceID string) (*model.Booking, error) {
	referenceID = strings.ToUpper(strings.TrimSpace(referenceID))
	if referenceID == "" {
		return nil, validationError("Reference ID required")
	}
	b, err := s.bookings.GetByReference(ctx, referenceID)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, notFoundError("Booking not found")
		}
		s.log.WithError(err).WithField("reference", referenceID).Error("get booking failed")
		return nil, storageError("Failed to fetch booking", err)
	}
	return b, nil
}

// QuoteInput asks for the price of a prospective booking.
type QuoteInput struct {
	ExperienceID string `json:"experienceId"`
	Quantity     int    `json:"quantity"`
	PromoCode    string `json:"promoCode"`
}

// QuoteResult is a server-side price breakdown.
type QuoteResult struct {
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
	Taxes     float64 `json:"taxes"`
	Discount  float64 `json:"discount"`
	Total     float64 `json:"total"`
	PromoCode string  `json:"promoCode,omitempty"`
}

// Quote prices a prospective booking without reserving anything.  A
// promo, when given, must be valid.
func (s *BookingService) Quote(ctx context.Context, in QuoteInput) (*QuoteResult, error) {
	id := strings.TrimSpace(in.ExperienceID)
	if id == "" {
		return nil, validationError("Missing required fields")
	}
	if in.Quantity < 1 {
		return nil, validationError("Quantity must be a positive integer")
	}
	exp, err := s.experiences.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrExperienceNotFound) {
			return nil, notFoundError("Experience not found")
		}
		return nil, storageError("Failed to compute quote", err)
	}

	draft := checkout.Draft{Price: exp.Price, Quantity: in.Quantity}
	code := strings.ToUpper(strings.TrimSpace(in.PromoCode))
	if code != "" {
		res, err := s.promos.Validate(ctx, code, draft.Quote(s.opts.TaxRate).Subtotal)
		if err != nil {
			return nil, err
		}
		draft.Discount = res.Discount
	}
	q := draft.Quote(s.opts.TaxRate)
	return &QuoteResult{
		Price:     exp.Price,
		Quantity:  in.Quantity,
		Subtotal:  q.Subtotal,
		Taxes:     q.Taxes,
		Discount:  q.Discount,
		Total:     q.Total,
		PromoCode: code,
	}, nil
}
