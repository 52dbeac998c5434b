package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

// BookingClient talks to the booking service API.
type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseURL),
	}
}

// ListFilters narrows a window query. Zero values mean "no filter".
type ListFilters struct {
	ResourceOwnerID string
	Staff           string
	Keyword         string
}

type Metadata struct {
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
}

func (c *BookingClient) Create(ctx context.Context, req *model.BookingRequest) (*Response, error) {
	return c.httpClient.POST(ctx, "/api/v1/bookings", req)
}

func (c *BookingClient) List(ctx context.Context, from, to time.Time, filters ListFilters, page, pageSize int) (*Response, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))

	if filters.ResourceOwnerID != "" {
		q.Set("resource_owner_id", filters.ResourceOwnerID)
	}
	if filters.Staff != "" {
		q.Set("staff", filters.Staff)
	}
	if filters.Keyword != "" {
		q.Set("keyword", filters.Keyword)
	}
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	if pageSize > 0 {
		q.Set("page_size", fmt.Sprintf("%d", pageSize))
	}

	return c.httpClient.GET(ctx, "/api/v1/bookings?"+q.Encode())
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) Update(ctx context.Context, id string, req *model.BookingRequest) (*Response, error) {
	return c.httpClient.PUT(ctx, "/api/v1/bookings/id/"+url.PathEscape(id), req)
}

func (c *BookingClient) Delete(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.DELETE(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper:\n%+v\n%s", resp.ToString(), err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json:\n%+v\n%s", resp.ToString(), err)
	}

	return &booking, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, *Metadata, error) {
	var wrapper struct {
		Data       json.RawMessage `json:"data"`
		TotalCount int64           `json:"total_count"`
		Page       int             `json:"page"`
		PageSize   int             `json:"page_size"`
	}

	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, nil, fmt.Errorf("could not decode paginated resp:\n%+v\n%s", resp.ToString(), err)
	}

	var bookings []*model.Booking
	if err := json.Unmarshal(wrapper.Data, &bookings); err != nil {
		return nil, nil, fmt.Errorf("could not decode booking list:\n%+v\n%s", resp.ToString(), err)
	}

	metadata := &Metadata{
		TotalCount: wrapper.TotalCount,
		Page:       wrapper.Page,
		PageSize:   wrapper.PageSize,
	}

	return bookings, metadata, nil
}
