package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/experience-booking/internal/model"
)

// PromoRepo is the Promo Store.
type PromoRepo struct {
	db *sql.DB
}

// NewPromoRepo returns a new PromoRepo bound to the given database.
func NewPromoRepo(db *sql.DB) *PromoRepo { return &PromoRepo{db: db} }

// GetActiveByCode looks up an active promo by code.  The code is upper-cased
// before the lookup.  Unknown and inactive codes both yield ErrPromoNotFound.
func (r *PromoRepo) GetActiveByCode(ctx context.Context, code string) (*model.Promo, error) {
	const q = `SELECT id, code, discount_type, discount_value, max_uses, current_uses, active, created_at
	           FROM promos WHERE code = ? AND active = 1`
	var p model.Promo
	var kind string
	err := r.db.QueryRowContext(ctx, q, strings.ToUpper(code)).Scan(
		&p.ID, &p.Code, &kind, &p.DiscountValue, &p.MaxUses, &p.CurrentUses, &p.Active, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPromoNotFound
		}
		return nil, err
	}
	p.DiscountType = model.DiscountType(kind)
	if !p.DiscountType.Valid() {
		return nil, fmt.Errorf("promo %s: unknown discount type %q", p.Code, kind)
	}
	return &p, nil
}

// EnsureExists inserts the promo unless a promo with the same code is
// already stored.  It reports whether a row was created.  Existing promos
// keep their counters.
func (r *PromoRepo) EnsureExists(ctx context.Context, p *model.Promo) (bool, error) {
	const q = `INSERT INTO promos (code, discount_type, discount_value, max_uses, current_uses, active)
	           VALUES (?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE code = code`
	p.Code = strings.ToUpper(p.Code)
	res, err := r.db.ExecContext(ctx, q, p.Code, string(p.DiscountType), p.DiscountValue, p.MaxUses, p.CurrentUses, p.Active)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		if id, err := res.LastInsertId(); err == nil {
			p.ID = uint64(id)
		}
		return true, nil
	}
	return false, nil
}

// RedeemTx records one use of the promo within the caller's transaction.
// The cap is re-checked by the UPDATE itself, so concurrent redemptions
// cannot push current_uses past max_uses.
func (r *PromoRepo) RedeemTx(ctx context.Context, tx *sql.Tx, code string) error {
	const q = `UPDATE promos SET current_uses = current_uses + 1
	           WHERE code = ? AND active = 1 AND current_uses < max_uses`
	res, err := tx.ExecContext(ctx, q, strings.ToUpper(code))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPromoExhausted
	}
	return nil
}
