package model

import "time"

// Experience is a bookable activity offering.  It owns its Slots
// exclusively; slots are not addressable outside of their parent.
//
// Fields:
//  ID          – experiences.id (uuid string).
//  Name        – display name.
//  Location    – free-form location text.
//  Description – long description.
//  Image       – image URL.
//  Price       – unit price, always positive.
//  Dates       – calendar dates on offer, in insertion order.
//  Slots       – time-of-day options with remaining capacity.
//  CreatedAt   – creation timestamp.
type Experience struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Price       float64   `json:"price"`
	Dates       []string  `json:"dates"`
	Slots       []Slot    `json:"slots"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Slot is a time-of-day option for an Experience.  Time is unique within
// its experience and Available never drops below zero.
type Slot struct {
	Time      string `json:"time"`      // experience_slots.time_label, e.g. "09:00 AM"
	Available int    `json:"available"` // experience_slots.available
}

// FindSlot returns the slot with the given time label, or nil.
func (e *Experience) FindSlot(timeLabel string) *Slot {
	for i := range e.Slots {
		if e.Slots[i].Time == timeLabel {
			return &e.Slots[i]
		}
	}
	return nil
}
