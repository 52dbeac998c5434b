package model

import (
	"time"
)

// Booking is a time-bound appointment tied to a CRM customer and,
// optionally, a staff member. Staff is the contention key: two bookings
// with the same non-empty staff must never overlap in time. A booking
// with no end time occupies the zero-length interval [start, start).
type Booking struct {
	ID              string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ResourceOwnerID string     `json:"resource_owner_id" bson:"resource_owner_id" validate:"required"`
	Staff           string     `json:"staff,omitempty" bson:"staff,omitempty" validate:"omitempty,max=100"`
	StartTime       time.Time  `json:"start_time" bson:"start_time" validate:"required"`
	EndTime         *time.Time `json:"end_time,omitempty" bson:"end_time,omitempty"`
	Title           string     `json:"title,omitempty" bson:"title,omitempty" validate:"omitempty,max=200"`
	Content         string     `json:"content,omitempty" bson:"content,omitempty" validate:"omitempty,max=2000"`
	Status          string     `json:"status,omitempty" bson:"status,omitempty" validate:"omitempty,max=50"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at" validate:"omitempty"`

	// OwnerName carries the customer display name looked up from the
	// directory service. Display-only, never persisted.
	OwnerName string `json:"resource_owner_name,omitempty" bson:"-"`
}

// EffectiveEnd returns the exclusive end of the booking's interval,
// defaulting to the start for bookings with no end time.
func (b *Booking) EffectiveEnd() time.Time {
	if b.EndTime != nil {
		return *b.EndTime
	}
	return b.StartTime
}

// BookingRequest is the payload for create and update. Update is a full
// replace: every mutable field takes the value supplied here, only ID and
// CreatedAt survive from the stored booking. StartTime is a pointer so a
// missing start is distinguishable from a zero timestamp and can be
// rejected instead of silently defaulted.
type BookingRequest struct {
	ResourceOwnerID string     `json:"resource_owner_id" validate:"required"`
	Staff           string     `json:"staff,omitempty" validate:"omitempty,max=100"`
	StartTime       *time.Time `json:"start_time" validate:"required"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Title           string     `json:"title,omitempty" validate:"omitempty,max=200"`
	Content         string     `json:"content,omitempty" validate:"omitempty,max=2000"`
	Status          string     `json:"status,omitempty" validate:"omitempty,max=50"`
}
