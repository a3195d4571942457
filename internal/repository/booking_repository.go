package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/experience-booking/internal/model"
)

// BookingRepo is the Booking Store.  Bookings are insert-only; the
// reference_id column carries a unique index.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a booking within the scope of an existing transaction.
// A missing ID is generated.  CreatedAt is populated from the database
// default.  A reference collision yields ErrDuplicateReference; the
// caller must roll back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	const q = `INSERT INTO bookings
	           (id, reference_id, full_name, email, experience_id, experience_name, date, time_label,
	            quantity, subtotal, taxes, total, promo_code, discount)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var promo sql.NullString
	if b.PromoCode != nil {
		promo = sql.NullString{String: *b.PromoCode, Valid: true}
	}
	var discount sql.NullFloat64
	if b.Discount != nil {
		discount = sql.NullFloat64{Float64: *b.Discount, Valid: true}
	}
	_, err := tx.ExecContext(ctx, q,
		b.ID, b.ReferenceID, b.FullName, b.Email, b.ExperienceID, b.ExperienceName, b.Date, b.Time,
		b.Quantity, b.Subtotal, b.Taxes, b.Total, promo, discount,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateReference
		}
		return err
	}
	return tx.QueryRowContext(ctx, `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// GetByReference returns the booking with the given reference code.  The
// lookup is case-insensitive because codes are always stored upper case.
func (r *BookingRepo) GetByReference(ctx context.Context, referenceID string) (*model.Booking, error) {
	const q = `SELECT id, reference_id, full_name, email, experience_id, experience_name, date, time_label,
	                  quantity, subtotal, taxes, total, promo_code, discount, created_at
	           FROM bookings WHERE reference_id = ?`
	var b model.Booking
	var promo sql.NullString
	var discount sql.NullFloat64
	err := r.db.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(referenceID))).Scan(
		&b.ID, &b.ReferenceID, &b.FullName, &b.Email, &b.ExperienceID, &b.ExperienceName, &b.Date, &b.Time,
		&b.Quantity, &b.Subtotal, &b.Taxes, &b.Total, &promo, &discount, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if promo.Valid {
		p := promo.String
		b.PromoCode = &p
	}
	if discount.Valid {
		d := discount.Float64
		b.Discount = &d
	}
	return &b, nil
}
