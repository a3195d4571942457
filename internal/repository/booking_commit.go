package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/experience-booking/internal/model"
)

// CommitOptions tunes a booking commit.
type CommitOptions struct {
	// RedeemPromo increments the booking's promo usage counter in the
	// same transaction.  It has no effect when the booking has no promo.
	RedeemPromo bool
}

// BookingCommitter persists a booking and its inventory effects as one
// unit: the slot decrement, the optional promo redemption and the booking
// insert either all commit or all roll back.
type BookingCommitter struct {
	db          *sql.DB
	experiences *ExperienceRepo
	promos      *PromoRepo
	bookings    *BookingRepo
}

// NewBookingCommitter wires the committer to its repositories.  All
// repositories must share db.
func NewBookingCommitter(db *sql.DB, experiences *ExperienceRepo, promos *PromoRepo, bookings *BookingRepo) *BookingCommitter {
	if db == nil || experiences == nil || promos == nil || bookings == nil {
		panic("nil dependency passed to NewBookingCommitter")
	}
	return &BookingCommitter{db: db, experiences: experiences, promos: promos, bookings: bookings}
}

// Commit runs the booking transaction.  It returns ErrSlotUnavailable,
// ErrPromoExhausted or ErrDuplicateReference for the corresponding
// business outcomes; nothing is persisted in any error case.
func (c *BookingCommitter) Commit(ctx context.Context, b *model.Booking, opts CommitOptions) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := c.experiences.DecrementSlotTx(ctx, tx, b.ExperienceID, b.Time, b.Quantity); err != nil {
		return err
	}
	if opts.RedeemPromo && b.PromoCode != nil && *b.PromoCode != "" {
		if err := c.promos.RedeemTx(ctx, tx, *b.PromoCode); err != nil {
			return err
		}
	}
	if err := c.bookings.CreateTx(ctx, tx, b); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
