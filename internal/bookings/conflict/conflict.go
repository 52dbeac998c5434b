// Package conflict implements the overlap detection rule for staff
// bookings. It is pure: callers supply the candidate set, detection
// never touches storage, and the same rule serves both the server's
// authoritative check and the calendar client's advisory pre-check.
package conflict

import (
	"strings"
	"time"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints do not overlap, and a
// zero-length interval only conflicts when its instant lies strictly
// inside the other interval.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict returns the existing booking that collides with the
// candidate interval for the given staff, or nil. A blank staff opts
// out of enforcement entirely. A nil end defaults to the start (point
// booking). excludeID lets an update skip the booking being moved so
// it never conflicts with itself.
//
// When several bookings collide, the one with the earliest start wins
// so user-facing conflict messages are deterministic.
func FindConflict(candidates []*model.Booking, staff string, start time.Time, end *time.Time, excludeID string) *model.Booking {
	if strings.TrimSpace(staff) == "" {
		return nil
	}

	candEnd := start
	if end != nil {
		candEnd = *end
	}

	var earliest *model.Booking
	for _, b := range candidates {
		if b.ID != "" && b.ID == excludeID {
			continue
		}
		if b.Staff != staff {
			continue
		}
		if !Overlaps(b.StartTime, b.EffectiveEnd(), start, candEnd) {
			continue
		}
		if earliest == nil || b.StartTime.Before(earliest.StartTime) {
			earliest = b
		}
	}

	return earliest
}
