package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/service"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/config"
	apperrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/errors"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/logger"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

// Mock service for testing
type mockBookingService struct {
	createFunc func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	getFunc    func(ctx context.Context, id string) (*model.Booking, error)
	listFunc   func(ctx context.Context, q service.ListQuery) ([]*model.Booking, int64, error)
	updateFunc func(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error)
	deleteFunc func(ctx context.Context, id string) error
}

func (m *mockBookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) List(ctx context.Context, q service.ListQuery) ([]*model.Booking, int64, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, q)
	}
	return []*model.Booking{}, 0, nil
}

func (m *mockBookingService) Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, req)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func newTestHandler(svc service.BookingService) (*BookingHandler, *httprouter.Router) {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:             log,
		DefaultPageSize: 50,
		MaxPageSize:     500,
	}

	h := NewBookingHandler(svc, cfg)
	router := httprouter.New()
	h.RegisterRoutes(router)
	return h, router
}

func TestCreate_ReturnsCreated(t *testing.T) {
	start := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	mockService := &mockBookingService{
		createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
			return &model.Booking{
				ID:              "507f1f77bcf86cd799439011",
				ResourceOwnerID: req.ResourceOwnerID,
				Staff:           req.Staff,
				StartTime:       start,
			}, nil
		},
	}
	_, router := newTestHandler(mockService)

	body := `{"resource_owner_id":"cust-1","staff":"Jason","start_time":"2026-03-10T10:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var wrapper struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &wrapper); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if wrapper.Data.ID != "507f1f77bcf86cd799439011" {
		t.Errorf("expected generated id in response, got %q", wrapper.Data.ID)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	_, router := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreate_ValidationErrorMapsTo400(t *testing.T) {
	mockService := &mockBookingService{
		createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
			return nil, apperrors.Validation("start_time is required", nil)
		},
	}
	_, router := newTestHandler(mockService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{"staff":"Jason"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for validation failure, got %d", rec.Code)
	}
}

func TestCreate_ConflictMapsTo409(t *testing.T) {
	mockService := &mockBookingService{
		createFunc: func(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
			return nil, apperrors.Conflict("Booking overlaps an existing booking for this staff").WithDetails(map[string]any{
				"conflicting_id":    "507f1f77bcf86cd799439011",
				"conflicting_start": "2026-03-10T10:00:00Z",
				"staff":             "Jason",
			})
		},
	}
	_, router := newTestHandler(mockService)

	body := `{"resource_owner_id":"cust-1","staff":"Jason","start_time":"2026-03-10T10:30:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "507f1f77bcf86cd799439011") {
		t.Errorf("conflict response must identify the conflicting booking: %s", rec.Body.String())
	}
}

func TestList_RequiresWindow(t *testing.T) {
	_, router := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without from/to, got %d", rec.Code)
	}
}

func TestList_PassesWindowAndFilters(t *testing.T) {
	var received service.ListQuery
	mockService := &mockBookingService{
		listFunc: func(ctx context.Context, q service.ListQuery) ([]*model.Booking, int64, error) {
			received = q
			return []*model.Booking{}, 0, nil
		},
	}
	_, router := newTestHandler(mockService)

	target := "/api/v1/bookings?from=2026-03-10T00:00:00Z&to=2026-03-11T00:00:00Z&staff=Jason&keyword=consult&page=2&page_size=10"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if received.Staff != "Jason" || received.Keyword != "consult" {
		t.Errorf("filters not forwarded: %+v", received)
	}
	if received.Page != 2 || received.PageSize != 10 {
		t.Errorf("pagination not forwarded: page=%d page_size=%d", received.Page, received.PageSize)
	}
	if !received.From.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("from not forwarded: %v", received.From)
	}
}

func TestList_PaginatedResponseShape(t *testing.T) {
	mockService := &mockBookingService{
		listFunc: func(ctx context.Context, q service.ListQuery) ([]*model.Booking, int64, error) {
			return []*model.Booking{
				{ID: "507f1f77bcf86cd799439011", Staff: "Jason"},
			}, 37, nil
		},
	}
	_, router := newTestHandler(mockService)

	target := "/api/v1/bookings?from=2026-03-10T00:00:00Z&to=2026-03-11T00:00:00Z"
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp struct {
		Data       []model.Booking `json:"data"`
		TotalCount int64           `json:"total_count"`
		Page       int             `json:"page"`
		PageSize   int             `json:"page_size"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.TotalCount != 37 || len(resp.Data) != 1 {
		t.Errorf("unexpected envelope: total=%d items=%d", resp.TotalCount, len(resp.Data))
	}
	if resp.Page != 1 || resp.PageSize != 50 {
		t.Errorf("expected normalized defaults page=1 page_size=50, got %d/%d", resp.Page, resp.PageSize)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	mockService := &mockBookingService{
		getFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	_, router := newTestHandler(mockService)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/507f1f77bcf86cd799439011", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestUpdate_ReturnsUpdatedBooking(t *testing.T) {
	var receivedID string
	mockService := &mockBookingService{
		updateFunc: func(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error) {
			receivedID = id
			return &model.Booking{ID: id, Title: req.Title}, nil
		},
	}
	_, router := newTestHandler(mockService)

	body := `{"resource_owner_id":"cust-1","start_time":"2026-03-10T14:00:00Z","title":"Moved"}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/bookings/id/507f1f77bcf86cd799439011", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if receivedID != "507f1f77bcf86cd799439011" {
		t.Errorf("id not forwarded to service, got %q", receivedID)
	}
}

func TestDelete_ReturnsNoContent(t *testing.T) {
	_, router := newTestHandler(&mockBookingService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bookings/id/507f1f77bcf86cd799439011", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
}
