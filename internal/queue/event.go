// Package queue defines message payloads exchanged over the message broker
// together with the RabbitMQ publisher and consumer that move them.
package queue

// BookingCreatedEvent is published after a booking transaction commits.
// It carries enough of the booking for downstream consumers to log,
// notify or feed analytics without querying the primary database.
type BookingCreatedEvent struct {
	BookingID      string   `json:"booking_id"`
	ReferenceID    string   `json:"reference_id"`
	ExperienceID   string   `json:"experience_id"`
	ExperienceName string   `json:"experience_name"`
	Date           string   `json:"date"`
	Time           string   `json:"time"`
	Quantity       int      `json:"quantity"`
	FullName       string   `json:"full_name"`
	Email          string   `json:"email"`
	Total          float64  `json:"total"`
	PromoCode      string   `json:"promo_code,omitempty"`
	Discount       *float64 `json:"discount,omitempty"`
	CreatedAt      string   `json:"created_at"`
}
