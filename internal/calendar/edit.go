package calendar

import (
	"context"
	"time"

	apperrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/errors"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

// EditState tracks one edit through its lifecycle. Exported so UI
// layers can bind rendering to it (ghost block while pending, snap-back
// on rejection).
type EditState int

const (
	EditIdle EditState = iota
	EditPending
	EditCommitted
	EditRejected
)

func (s EditState) String() string {
	switch s {
	case EditIdle:
		return "idle"
	case EditPending:
		return "pending"
	case EditCommitted:
		return "committed"
	case EditRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Edit is one optimistic mutation of a cached booking. Move updates the
// cached copy immediately so the UI renders the drag target; Commit asks
// the server to make it real; Cancel and a rejected Commit restore the
// pre-edit values.
type Edit struct {
	controller *Controller
	id         string
	state      EditState
	original   model.Booking
	draft      model.Booking
}

func (e *Edit) ID() string { return e.id }

func (e *Edit) State() EditState { return e.state }

func (e *Edit) Original() model.Booking { return e.original }

// Move applies new times to the cached copy. The server has not been
// asked yet; the edit is pending until Commit resolves it.
func (e *Edit) Move(start time.Time, end *time.Time) {
	e.draft.StartTime = start
	e.draft.EndTime = end
	e.state = EditPending
	e.controller.applyCached(&e.draft)
}

// Reassign moves the booking to a different staff member as part of the
// same pending edit.
func (e *Edit) Reassign(staff string) {
	e.draft.Staff = staff
	e.state = EditPending
	e.controller.applyCached(&e.draft)
}

// Cancel restores the pre-edit values and sends nothing.
func (e *Edit) Cancel() {
	if e.state == EditPending {
		e.controller.applyCached(&e.original)
	}
	e.draft = e.original
	e.state = EditIdle
}

// Commit sends the pending edit to the server.
//
// The optional pre-check runs the conflict rule against the cached
// window first to short-circuit obviously bad moves without a round
// trip. It is advisory: the server re-checks against committed state
// and its verdict is the one that counts.
//
// A 409 reverts the cached copy and surfaces the conflicting booking.
// A transport failure leaves the cached copy alone and marks the cache
// stale, because the server may have applied the write.
func (e *Edit) Commit(ctx context.Context) error {
	if e.state != EditPending {
		return nil
	}

	if c := e.controller.preCheck(e.id, e.draft.Staff, e.draft.StartTime, e.draft.EndTime); c != nil {
		e.reject()
		return apperrors.Conflict("Move overlaps an existing booking").WithDetails(map[string]any{
			"conflicting_id":    c.ID,
			"conflicting_start": c.StartTime.Format(time.RFC3339),
			"staff":             c.Staff,
		})
	}

	updated, err := e.controller.api.Update(ctx, e.id, requestFromBooking(&e.draft))
	if err != nil {
		if outcomeUnknown(err) {
			// The write may have landed. Keep the optimistic copy on
			// screen and force a refetch before trusting the cache.
			e.controller.markStale()
			return err
		}
		e.reject()
		return err
	}

	e.controller.applyCached(updated)
	e.original = *updated
	e.draft = *updated
	e.state = EditCommitted
	return nil
}

func (e *Edit) reject() {
	e.controller.applyCached(&e.original)
	e.draft = e.original
	e.state = EditRejected
}

// requestFromBooking builds the full-replace payload. Every field is
// carried because the server overwrites all of them.
func requestFromBooking(b *model.Booking) *model.BookingRequest {
	start := b.StartTime
	return &model.BookingRequest{
		ResourceOwnerID: b.ResourceOwnerID,
		Staff:           b.Staff,
		StartTime:       &start,
		EndTime:         b.EndTime,
		Title:           b.Title,
		Content:         b.Content,
		Status:          b.Status,
	}
}
