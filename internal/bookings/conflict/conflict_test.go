package conflict

import (
	"testing"
	"time"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 10, hour, min, 0, 0, time.Local)
}

func tp(t time.Time) *time.Time {
	return &t
}

func booking(id, staff string, start time.Time, end *time.Time) *model.Booking {
	return &model.Booking{
		ID:              id,
		ResourceOwnerID: "cust-1",
		Staff:           staff,
		StartTime:       start,
		EndTime:         end,
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		expected                       bool
	}{
		{"partial overlap", at(10, 0), at(11, 0), at(10, 30), at(11, 30), true},
		{"contained", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"touching end-to-start", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching start-to-end", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(9, 0), at(10, 0), at(13, 0), at(14, 0), false},
		{"identical", at(10, 0), at(11, 0), at(10, 0), at(11, 0), true},
		{"point inside interval", at(10, 0), at(11, 0), at(10, 30), at(10, 30), true},
		{"point at interval start", at(10, 0), at(11, 0), at(10, 0), at(10, 0), false},
		{"two identical points", at(10, 0), at(10, 0), at(10, 0), at(10, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd); got != tt.expected {
				t.Errorf("Overlaps(%v, %v, %v, %v) = %v, want %v",
					tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.expected)
			}
		})
	}
}

func TestFindConflict_OverlappingBooking(t *testing.T) {
	existing := []*model.Booking{
		booking("b1", "Jason", at(10, 0), tp(at(11, 0))),
	}

	got := FindConflict(existing, "Jason", at(10, 30), tp(at(11, 30)), "")
	if got == nil {
		t.Fatal("expected conflict, got none")
	}
	if got.ID != "b1" {
		t.Errorf("expected conflict with b1, got %s", got.ID)
	}
}

func TestFindConflict_TouchingBoundaryIsFree(t *testing.T) {
	existing := []*model.Booking{
		booking("b1", "Jason", at(10, 0), tp(at(11, 0))),
	}

	if got := FindConflict(existing, "Jason", at(11, 0), tp(at(12, 0)), ""); got != nil {
		t.Errorf("touching boundary must not conflict, got %s", got.ID)
	}
}

func TestFindConflict_BlankStaffBypassesEnforcement(t *testing.T) {
	existing := []*model.Booking{
		booking("b1", "", at(10, 0), tp(at(11, 0))),
	}

	if got := FindConflict(existing, "", at(10, 0), tp(at(11, 0)), ""); got != nil {
		t.Errorf("blank staff must bypass enforcement, got %s", got.ID)
	}
	if got := FindConflict(existing, "   ", at(10, 0), tp(at(11, 0)), ""); got != nil {
		t.Errorf("whitespace staff must bypass enforcement, got %s", got.ID)
	}
}

func TestFindConflict_DifferentStaffNeverConflicts(t *testing.T) {
	existing := []*model.Booking{
		booking("b1", "Jason", at(10, 0), tp(at(11, 0))),
	}

	if got := FindConflict(existing, "Maria", at(10, 0), tp(at(11, 0)), ""); got != nil {
		t.Errorf("different staff must not conflict, got %s", got.ID)
	}
}

func TestFindConflict_ExcludeIDSkipsSelf(t *testing.T) {
	existing := []*model.Booking{
		booking("b1", "Jason", at(10, 0), tp(at(11, 0))),
	}

	// Re-saving the same interval for the same booking is not a
	// conflict with itself.
	if got := FindConflict(existing, "Jason", at(10, 0), tp(at(11, 0)), "b1"); got != nil {
		t.Errorf("booking must not conflict with itself, got %s", got.ID)
	}
}

func TestFindConflict_EarliestStartWins(t *testing.T) {
	existing := []*model.Booking{
		booking("late", "Jason", at(11, 0), tp(at(12, 0))),
		booking("early", "Jason", at(9, 0), tp(at(11, 30))),
		booking("middle", "Jason", at(10, 0), tp(at(11, 0))),
	}

	got := FindConflict(existing, "Jason", at(9, 30), tp(at(12, 0)), "")
	if got == nil {
		t.Fatal("expected conflict, got none")
	}
	if got.ID != "early" {
		t.Errorf("expected earliest-start conflict 'early', got %s", got.ID)
	}
}

func TestFindConflict_MissingEndDefaultsToStart(t *testing.T) {
	// Point booking sitting inside the candidate interval conflicts.
	existing := []*model.Booking{
		booking("point", "Jason", at(10, 30), nil),
	}

	got := FindConflict(existing, "Jason", at(10, 0), tp(at(11, 0)), "")
	if got == nil {
		t.Fatal("expected point booking inside interval to conflict")
	}

	// Point booking exactly at the candidate start does not: [s, s)
	// is empty.
	atStart := []*model.Booking{
		booking("point", "Jason", at(10, 0), nil),
	}
	if got := FindConflict(atStart, "Jason", at(10, 0), tp(at(11, 0)), ""); got != nil {
		t.Errorf("empty interval at candidate start must not conflict, got %s", got.ID)
	}
}

func TestFindConflict_PointCandidate(t *testing.T) {
	existing := []*model.Booking{
		booking("b1", "Jason", at(10, 0), tp(at(11, 0))),
	}

	// Candidate with no end inside an existing interval conflicts.
	if got := FindConflict(existing, "Jason", at(10, 30), nil, ""); got == nil {
		t.Error("point candidate inside interval must conflict")
	}

	// At the existing booking's end boundary it does not.
	if got := FindConflict(existing, "Jason", at(11, 0), nil, ""); got != nil {
		t.Errorf("point candidate at boundary must not conflict, got %s", got.ID)
	}
}
