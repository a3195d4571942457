package model

import "time"

// DiscountType enumerates how a promo reduces an amount.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

// Valid reports whether d is a known discount type.
func (d DiscountType) Valid() bool {
	return d == DiscountPercentage || d == DiscountFlat
}

// Promo is a discount code with a usage cap.  Codes are stored in
// upper case and are unique.
//
// Fields:
//  ID            – promos.id.
//  Code          – promos.code (upper case).
//  DiscountType  – percentage | flat.
//  DiscountValue – percent (0-100) or flat amount.
//  MaxUses       – redemption cap.
//  CurrentUses   – redemptions recorded so far.
//  Active        – administrative on/off switch.
//  CreatedAt     – creation timestamp.
type Promo struct {
	ID            uint64       `json:"id"`
	Code          string       `json:"code"`
	DiscountType  DiscountType `json:"discountType"`
	DiscountValue float64      `json:"discountValue"`
	MaxUses       int          `json:"maxUses"`
	CurrentUses   int          `json:"currentUses"`
	Active        bool         `json:"active"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// Exhausted reports whether the promo has reached its cap.  An active
// promo can still be exhausted.
func (p *Promo) Exhausted() bool {
	return p.CurrentUses >= p.MaxUses
}
