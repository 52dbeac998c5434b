package validator

import (
	"strings"
	"testing"
	"time"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/logger"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

func newTestValidator() *BookingValidator {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	return NewBookingValidator(log)
}

func tp(t time.Time) *time.Time {
	return &t
}

func TestValidateRequest_Valid(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

	req := &model.BookingRequest{
		ResourceOwnerID: "cust-1",
		Staff:           "Jason",
		StartTime:       tp(start),
		EndTime:         tp(start.Add(time.Hour)),
		Title:           "Quarterly review",
	}

	if err := v.ValidateRequest(req); err != nil {
		t.Errorf("expected valid request, got %v", err)
	}
}

func TestValidateRequest_MissingStart(t *testing.T) {
	v := newTestValidator()

	req := &model.BookingRequest{
		ResourceOwnerID: "cust-1",
		Staff:           "Jason",
	}

	err := v.ValidateRequest(req)
	if err == nil {
		t.Fatal("expected validation error for missing start_time")
	}
	if !strings.Contains(err.Error(), "StartTime") {
		t.Errorf("error should name the missing field, got: %v", err)
	}
}

func TestValidateRequest_MissingResourceOwner(t *testing.T) {
	v := newTestValidator()
	start := time.Now().Add(time.Hour)

	req := &model.BookingRequest{
		StartTime: tp(start),
	}

	err := v.ValidateRequest(req)
	if err == nil {
		t.Fatal("expected validation error for missing resource_owner_id")
	}
	if !strings.Contains(err.Error(), "ResourceOwnerID") {
		t.Errorf("error should name the missing field, got: %v", err)
	}
}

func TestValidateRequest_EndBeforeStart(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

	req := &model.BookingRequest{
		ResourceOwnerID: "cust-1",
		StartTime:       tp(start),
		EndTime:         tp(start.Add(-time.Hour)),
	}

	if err := v.ValidateRequest(req); err == nil {
		t.Fatal("expected validation error for end before start")
	}
}

func TestValidateRequest_EndEqualStartIsPointBooking(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

	req := &model.BookingRequest{
		ResourceOwnerID: "cust-1",
		StartTime:       tp(start),
		EndTime:         tp(start),
	}

	if err := v.ValidateRequest(req); err != nil {
		t.Errorf("end == start is a valid point booking, got %v", err)
	}
}

func TestValidateRequest_OmittedEndAndStaffAreOptional(t *testing.T) {
	v := newTestValidator()
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.Local)

	req := &model.BookingRequest{
		ResourceOwnerID: "cust-1",
		StartTime:       tp(start),
	}

	if err := v.ValidateRequest(req); err != nil {
		t.Errorf("end and staff are optional, got %v", err)
	}
}
