package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	apperrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/errors"
)

// OwnerProfile is the slice of the CRM customer record the booking
// service needs for display enrichment.
type OwnerProfile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DirectoryClient looks up resource owners in the customer service.
// Names are display-only and never participate in conflict logic.
type DirectoryClient struct {
	rest *resty.Client
}

func NewDirectoryClient(baseURL string, timeout time.Duration) *DirectoryClient {
	rest := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &DirectoryClient{rest: rest}
}

func (c *DirectoryClient) LookupOwner(ctx context.Context, id string) (*OwnerProfile, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("owner id cannot be empty")
	}

	var profile OwnerProfile
	resp, err := c.rest.R().
		SetContext(ctx).
		SetResult(&profile).
		SetPathParam("id", id).
		Get("/api/v1/customers/{id}")
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return &profile, nil
	case http.StatusNotFound:
		return nil, apperrors.NotFoundWithID("Customer", id)
	default:
		return nil, apperrors.Unavailable("customer directory")
	}
}
