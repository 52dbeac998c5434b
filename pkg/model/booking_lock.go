package model

import "time"

// BookingLock is an advisory lock document serializing the
// read-check-write sequence for one staff member. Insertion into the
// lock collection acts as acquisition: a duplicate key means another
// request holds the staff lane. ExpiresAt is TTL-indexed so locks
// abandoned by crashed requests free themselves.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
