package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/config"
	apperrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/errors"
)

// ExtractPage reads page/page_size query parameters and normalizes them
// against the configured bounds. Page numbering starts at 1.
func ExtractPage(r *http.Request, cfg *config.Config) (int, int, error) {
	query := r.URL.Query()

	page := 1
	if s := query.Get("page"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid page parameter: " + s)
		}
		page = v
	}

	pageSize := 0
	if s := query.Get("page_size"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid page_size parameter: " + s)
		}
		pageSize = v
	}

	return config.NormalizePage(page), cfg.NormalizePageSize(pageSize), nil
}

// ExtractWindow reads the required from/to RFC3339 query parameters.
func ExtractWindow(r *http.Request) (time.Time, time.Time, error) {
	query := r.URL.Query()

	fromStr := query.Get("from")
	toStr := query.Get("to")
	if fromStr == "" || toStr == "" {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("both 'from' and 'to' query parameters are required")
	}

	from, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid from parameter, must be RFC3339")
	}
	to, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("invalid to parameter, must be RFC3339")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperrors.InvalidInput("'to' must not be before 'from'")
	}

	return from, to, nil
}
