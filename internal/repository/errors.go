// Package repository holds the MySQL-backed stores for experiences,
// promos and bookings.  Sentinel errors defined here let the service layer
// distinguish business outcomes (not found, no capacity, duplicate
// reference) from unexpected database failures.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrExperienceNotFound is returned when no experience has the given id.
var ErrExperienceNotFound = errors.New("experience not found")

// ErrPromoNotFound is returned when no active promo matches a code.
var ErrPromoNotFound = errors.New("promo not found")

// ErrBookingNotFound is returned when no booking has the given reference.
var ErrBookingNotFound = errors.New("booking not found")

// ErrSlotUnavailable is returned by the conditional slot decrement when
// the slot does not exist or holds fewer seats than requested.
var ErrSlotUnavailable = errors.New("slot not available")

// ErrPromoExhausted is returned when a promo redemption would exceed
// max_uses, or the promo was deactivated concurrently.
var ErrPromoExhausted = errors.New("promo exhausted")

// ErrDuplicateReference signals a collision on bookings.reference_id.
var ErrDuplicateReference = errors.New("duplicate booking reference")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
