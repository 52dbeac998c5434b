package calendar

import (
	"context"
	"net/http"
	"time"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/client"
	apperrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/errors"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

// BookingAPI is the controller's view of the booking service. Errors
// come back as AppErrors so callers can branch on the code: CONFLICT
// means the server rejected the write, SERVICE_UNAVAILABLE and TIMEOUT
// mean the outcome is unknown.
type BookingAPI interface {
	ListWindow(ctx context.Context, from, to time.Time, filters client.ListFilters) ([]*model.Booking, error)
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingAPIAdapter struct {
	client *client.BookingClient
}

// NewBookingAPI adapts the raw HTTP booking client to the controller's
// interface.
func NewBookingAPI(bookingClient *client.BookingClient) BookingAPI {
	return &bookingAPIAdapter{client: bookingClient}
}

func (a *bookingAPIAdapter) ListWindow(ctx context.Context, from, to time.Time, filters client.ListFilters) ([]*model.Booking, error) {
	var all []*model.Booking
	page := 1

	// Walk every page: the cached window must be complete or the
	// advisory pre-check would miss conflicts.
	for {
		resp, err := a.client.List(ctx, from, to, filters, page, 0)
		if err != nil {
			return nil, transportError(err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, statusError(resp)
		}

		bookings, metadata, err := a.client.DecodeBookings(resp)
		if err != nil {
			return nil, apperrors.Internal("Failed to decode booking list", err)
		}
		all = append(all, bookings...)

		if metadata.PageSize <= 0 || int64(page)*int64(metadata.PageSize) >= metadata.TotalCount {
			return all, nil
		}
		page++
	}
}

func (a *bookingAPIAdapter) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	resp, err := a.client.Create(ctx, req)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusCreated {
		return nil, statusError(resp)
	}
	return a.client.DecodeBooking(resp)
}

func (a *bookingAPIAdapter) Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error) {
	resp, err := a.client.Update(ctx, id, req)
	if err != nil {
		return nil, transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}
	return a.client.DecodeBooking(resp)
}

func (a *bookingAPIAdapter) Delete(ctx context.Context, id string) error {
	resp, err := a.client.Delete(ctx, id)
	if err != nil {
		return transportError(err)
	}
	if resp.StatusCode != http.StatusNoContent {
		return statusError(resp)
	}
	return nil
}

func transportError(err error) *apperrors.AppError {
	return apperrors.Unavailable("booking service").WithDetails(map[string]any{
		"cause": err.Error(),
	})
}

// statusError rebuilds an AppError from an error response body so the
// controller sees the same taxonomy the server emitted.
func statusError(resp *client.Response) *apperrors.AppError {
	var body struct {
		Error   string         `json:"error"`
		Details map[string]any `json:"details"`
	}
	_ = resp.DecodeJSON(&body)
	if body.Error == "" {
		body.Error = client.GetErrorMessage(resp)
	}

	switch resp.StatusCode {
	case http.StatusConflict:
		return apperrors.Conflict(body.Error).WithDetails(body.Details)
	case http.StatusNotFound:
		return apperrors.New(apperrors.CodeNotFound, body.Error, http.StatusNotFound)
	case http.StatusBadRequest:
		return apperrors.New(apperrors.CodeValidation, body.Error, http.StatusBadRequest)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return apperrors.Timeout(body.Error)
	default:
		return apperrors.New(apperrors.CodeInternal, body.Error, resp.StatusCode)
	}
}
