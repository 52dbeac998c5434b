package calendar

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/conflict"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/client"
	apperrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/errors"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/logger"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

// Window is the visible calendar range, half-open like bookings.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Options configures a Controller. DefaultStaff narrows every loaded
// window to one staff lane unless the caller filters explicitly; it is
// deliberate configuration, not ambient state left over from a previous
// screen.
type Options struct {
	DefaultStaff string

	// DisablePreCheck skips the advisory conflict check against the
	// cached window before a commit. The server check still runs.
	DisablePreCheck bool
}

// Controller keeps a client-side cache of one calendar window and
// mediates optimistic edits against the booking service. The cache is
// a view, never authoritative: every write is confirmed or rejected by
// the server.
type Controller struct {
	api  BookingAPI
	opts Options
	log  *logger.Logger

	mu       sync.Mutex
	window   Window
	filters  client.ListFilters
	bookings map[string]*model.Booking
	loaded   bool
	stale    bool
}

func NewController(api BookingAPI, opts Options, log *logger.Logger) *Controller {
	return &Controller{
		api:      api,
		opts:     opts,
		log:      log,
		bookings: make(map[string]*model.Booking),
	}
}

// LoadWindow fetches the bookings intersecting [from, to) and replaces
// the cache with them.
func (c *Controller) LoadWindow(ctx context.Context, from, to time.Time, filters client.ListFilters) error {
	if to.Before(from) {
		return apperrors.InvalidInput("window 'to' must not be before 'from'")
	}
	if filters.Staff == "" {
		filters.Staff = c.opts.DefaultStaff
	}

	bookings, err := c.api.ListWindow(ctx, from, to, filters)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.window = Window{From: from, To: to}
	c.filters = filters
	c.bookings = make(map[string]*model.Booking, len(bookings))
	for _, b := range bookings {
		cp := *b
		c.bookings[b.ID] = &cp
	}
	c.loaded = true
	c.stale = false

	c.log.Debug("Calendar window loaded",
		"from", from,
		"to", to,
		"staff", filters.Staff,
		"count", len(bookings),
	)
	return nil
}

// Refresh reloads the current window with the current filters.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	window := c.window
	filters := c.filters
	loaded := c.loaded
	c.mu.Unlock()

	if !loaded {
		return apperrors.InvalidInput("no window loaded")
	}
	return c.LoadWindow(ctx, window.From, window.To, filters)
}

// Stale reports whether the cache may disagree with the server. Set
// after a write with an unknown outcome; cleared by the next load.
func (c *Controller) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Bookings returns the cached window sorted ascending by start time.
func (c *Controller) Bookings() []*model.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*model.Booking, 0, len(c.bookings))
	for _, b := range c.bookings {
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Get returns the cached copy of one booking.
func (c *Controller) Get(id string) (*model.Booking, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bookings[id]
	if !ok {
		return nil, false
	}
	cp := *b
	return &cp, true
}

// Create sends a new booking to the server and, on success, inserts the
// canonical copy into the cache when it intersects the loaded window.
// There is no optimistic insert: a booking without a server-assigned id
// cannot be reconciled.
func (c *Controller) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	created, err := c.api.Create(ctx, req)
	if err != nil {
		if outcomeUnknown(err) {
			c.markStale()
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded && c.intersectsWindowLocked(created) {
		cp := *created
		c.bookings[created.ID] = &cp
	}
	return created, nil
}

// Cancel removes a booking. The cached copy goes optimistically; a
// failed delete puts it back, except when the outcome is unknown.
func (c *Controller) Cancel(ctx context.Context, id string) error {
	c.mu.Lock()
	removed, ok := c.bookings[id]
	if ok {
		delete(c.bookings, id)
	}
	c.mu.Unlock()

	err := c.api.Delete(ctx, id)
	if err == nil {
		return nil
	}

	appErr := apperrors.AsAppError(err)
	if appErr.Code == apperrors.CodeNotFound {
		// Already gone on the server; the optimistic removal stands.
		return nil
	}

	if outcomeUnknown(err) {
		c.markStale()
		return err
	}

	if ok {
		c.mu.Lock()
		c.bookings[id] = removed
		c.mu.Unlock()
	}
	return err
}

// BeginEdit starts an optimistic edit of a cached booking.
func (c *Controller) BeginEdit(id string) (*Edit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, ok := c.bookings[id]
	if !ok {
		return nil, apperrors.NotFoundWithID("Booking", id)
	}

	original := *b
	return &Edit{
		controller: c,
		id:         id,
		state:      EditIdle,
		original:   original,
		draft:      original,
	}, nil
}

// preCheck applies the conflict rule against the cached window,
// excluding the edited booking itself. Advisory only: the cache can be
// stale, so a clean pre-check never skips the server check, and the
// server's verdict always wins.
func (c *Controller) preCheck(id string, staff string, start time.Time, end *time.Time) *model.Booking {
	if c.opts.DisablePreCheck {
		return nil
	}

	c.mu.Lock()
	candidates := make([]*model.Booking, 0, len(c.bookings))
	for _, b := range c.bookings {
		candidates = append(candidates, b)
	}
	c.mu.Unlock()

	return conflict.FindConflict(candidates, staff, start, end, id)
}

func (c *Controller) applyCached(booking *model.Booking) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.bookings[booking.ID]; ok {
		cp := *booking
		c.bookings[booking.ID] = &cp
	}
}

func (c *Controller) markStale() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

func (c *Controller) intersectsWindowLocked(b *model.Booking) bool {
	if b.EndTime == nil {
		return !b.StartTime.Before(c.window.From) && !b.StartTime.After(c.window.To)
	}
	return b.StartTime.Before(c.window.To) && b.EndTime.After(c.window.From)
}

// outcomeUnknown reports whether the server may or may not have applied
// a write. Definitive rejections (409, 400, 404) are known outcomes.
func outcomeUnknown(err error) bool {
	code := apperrors.AsAppError(err).Code
	return code == apperrors.CodeUnavailable || code == apperrors.CodeTimeout || code == apperrors.CodeInternal
}
