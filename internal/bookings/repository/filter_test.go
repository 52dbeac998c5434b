package repository

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ts(hour int) time.Time {
	return time.Date(2026, 3, 10, hour, 0, 0, 0, time.Local)
}

func TestBuildWindowFilter_TimeOnly(t *testing.T) {
	filter := buildWindowFilter(WindowQuery{From: ts(9), To: ts(12)})

	branches, ok := filter["$or"].([]bson.M)
	if !ok {
		t.Fatalf("expected top-level $or for a bare window, got %v", filter)
	}
	if len(branches) != 2 {
		t.Fatalf("expected interval and point branches, got %d", len(branches))
	}

	interval := branches[0]
	if got := interval["start_time"].(bson.M)["$lt"]; got != ts(12) {
		t.Errorf("interval branch start bound = %v, want %v", got, ts(12))
	}
	if got := interval["end_time"].(bson.M)["$gt"]; got != ts(9) {
		t.Errorf("interval branch end bound = %v, want %v", got, ts(9))
	}

	point := branches[1]
	if _, exists := point["end_time"].(bson.M)["$exists"]; !exists {
		t.Errorf("point branch must target documents without end_time")
	}
}

func TestBuildWindowFilter_WithFilters(t *testing.T) {
	filter := buildWindowFilter(WindowQuery{
		From:            ts(9),
		To:              ts(12),
		ResourceOwnerID: "cust-7",
		Staff:           "Jason",
		Keyword:         "(a+)+b",
	})

	conditions, ok := filter["$and"].([]bson.M)
	if !ok {
		t.Fatalf("expected $and when filters are present, got %v", filter)
	}
	if len(conditions) != 4 {
		t.Fatalf("expected window + 3 filters, got %d conditions", len(conditions))
	}

	foundKeyword := false
	for _, c := range conditions {
		or, ok := c["$or"].([]bson.M)
		if !ok {
			continue
		}
		for _, branch := range or {
			if re, ok := branch["title"].(primitive.Regex); ok {
				foundKeyword = true
				if re.Pattern == "(a+)+b" {
					t.Errorf("keyword must be regex-escaped before reaching the filter")
				}
				if re.Options != "i" {
					t.Errorf("keyword match must be case-insensitive, got %q", re.Options)
				}
			}
		}
	}
	if !foundKeyword {
		t.Error("expected a keyword regex branch over title")
	}
}

func TestBuildOverlapFilter(t *testing.T) {
	end := ts(11)
	filter := buildOverlapFilter("Jason", ts(10), &end)

	if filter["staff"] != "Jason" {
		t.Errorf("filter must pin the staff lane, got %v", filter["staff"])
	}
	if got := filter["start_time"].(bson.M)["$lt"]; got != ts(11) {
		t.Errorf("candidates must start before the candidate end, got %v", got)
	}

	branches := filter["$or"].([]bson.M)
	if got := branches[0]["end_time"].(bson.M)["$gt"]; got != ts(10) {
		t.Errorf("interval candidates must end after the candidate start, got %v", got)
	}
}

func TestBuildOverlapFilter_PointCandidate(t *testing.T) {
	filter := buildOverlapFilter("Jason", ts(10), nil)

	// With no end the candidate occupies [start, start); only lanes
	// strictly straddling the instant can collide.
	if got := filter["start_time"].(bson.M)["$lt"]; got != ts(10) {
		t.Errorf("point candidate bound = %v, want %v", got, ts(10))
	}
}

func TestStaffLockID(t *testing.T) {
	if StaffLockID("Jason") != "staff_lock_Jason" {
		t.Errorf("unexpected lock id: %s", StaffLockID("Jason"))
	}
	if StaffLockID(" Jason ") != StaffLockID("Jason") {
		t.Error("lock id must normalize surrounding whitespace")
	}
}
