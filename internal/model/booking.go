package model

import "time"

// Booking is an immutable record of a completed reservation against one
// experience, date and time.  ExperienceName is captured at booking time
// and is never re-joined, so bookings outlive their experience.
//
// Fields:
//  ID             – bookings.id (uuid string).
//  FullName       – customer full name.
//  Email          – customer email.
//  ExperienceID   – experiences.id at booking time (not a foreign key).
//  ExperienceName – denormalized experience name.
//  Date           – chosen calendar date.
//  Time           – chosen slot time label.
//  Quantity       – number of seats, at least one.
//  Subtotal       – price before taxes and discount.
//  Taxes          – tax amount.
//  Total          – amount payable.
//  PromoCode      – applied promo code (nullable).
//  Discount       – discount applied (nullable).
//  ReferenceID    – short unique human-readable code.
//  CreatedAt      – creation timestamp.
type Booking struct {
	ID             string    `json:"_id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	ExperienceID   string    `json:"experienceId"`
	ExperienceName string    `json:"experienceName"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	Quantity       int       `json:"quantity"`
	Subtotal       float64   `json:"subtotal"`
	Taxes          float64   `json:"taxes"`
	Total          float64   `json:"total"`
	PromoCode      *string   `json:"promoCode,omitempty"`
	Discount       *float64  `json:"discount,omitempty"`
	ReferenceID    string    `json:"referenceId"`
	CreatedAt      time.Time `json:"createdAt"`
}
