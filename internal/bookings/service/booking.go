package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/conflict"
	bookingserrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/errors"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/repository"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/validator"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/client"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/config"
	apperrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/errors"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/kafka"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/sanitizer"
)

// ListQuery bounds a calendar window fetch with pagination.
type ListQuery struct {
	repository.WindowQuery
	Page     int
	PageSize int
}

// OwnerDirectory resolves customer display names. Lookups are
// display-only; a failing directory must never fail a booking query.
type OwnerDirectory interface {
	LookupOwner(ctx context.Context, id string) (*client.OwnerProfile, error)
}

// EventPublisher emits booking lifecycle events. Publishing is
// best-effort: a broker outage must not roll back a committed booking.
type EventPublisher interface {
	PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) error
}

type BookingService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	Get(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context, q ListQuery) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.BookingLockRepository
	validator *validator.BookingValidator
	cfg       *config.Config
	directory OwnerDirectory // nil disables enrichment
	events    EventPublisher // nil disables publishing
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.BookingLockRepository,
	bookingValidator *validator.BookingValidator,
	cfg *config.Config,
	directory OwnerDirectory,
	events EventPublisher,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		validator: bookingValidator,
		cfg:       cfg,
		directory: directory,
		events:    events,
	}
}

func (s *bookingService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	if req == nil {
		return nil, apperrors.InvalidInput("Request body cannot be empty")
	}
	s.sanitize(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	booking := bookingFromRequest(req)

	release, err := s.acquireStaffLock(ctx, booking.Staff)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// The authoritative check. The caller may have run its own
		// pre-check against a cached window, but that view can be
		// stale relative to concurrent writers.
		if err := s.checkConflict(sessCtx, booking, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"resource_owner_id", booking.ResourceOwnerID,
		"staff", booking.Staff,
		"start_time", booking.StartTime,
	)
	return booking, nil
}

func (s *bookingService) Get(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	s.enrichOwnerNames(ctx, []*model.Booking{booking})
	return booking, nil
}

func (s *bookingService) List(ctx context.Context, q ListQuery) ([]*model.Booking, int64, error) {
	if q.From.IsZero() || q.To.IsZero() {
		return nil, 0, apperrors.InvalidInput("Window bounds 'from' and 'to' are required")
	}
	if q.To.Before(q.From) {
		return nil, 0, apperrors.InvalidInput("Window 'to' must not be before 'from'")
	}

	page := config.NormalizePage(q.Page)
	pageSize := s.cfg.NormalizePageSize(q.PageSize)
	offset := int64(page-1) * int64(pageSize)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountWindow(ctx, q.WindowQuery)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings in window", "error", err)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindWindow(ctx, q.WindowQuery, int64(pageSize), offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings in window",
				"from", q.From,
				"to", q.To,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to retrieve bookings", err)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	s.enrichOwnerNames(ctx, bookings)

	s.cfg.Log.Debug("Window query completed",
		"from", q.From,
		"to", q.To,
		"count", len(bookings),
		"total_count", count,
	)
	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, id string, req *model.BookingRequest) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if req == nil {
		return nil, apperrors.InvalidInput("Request body cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapLookupError(err, id)
	}

	s.sanitize(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	merged := bookingFromRequest(req)
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt

	release, err := s.acquireStaffLock(ctx, merged.Staff)
	if err != nil {
		return nil, err
	}
	defer release()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// excludeID keeps the booking from conflicting with its own
		// committed interval.
		if err := s.checkConflict(sessCtx, merged, id); err != nil {
			return err
		}
		if err := s.repo.Replace(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingUpdated, merged)
	s.cfg.Log.Info("Booking updated successfully", "id", id)
	return merged, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapLookupError(err, id)
	}

	// Freeing a slot cannot create a conflict, so delete takes no lock
	// and runs no conflict re-check.
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to delete booking", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, kafka.EventBookingDeleted, existing)
	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	return nil
}

// --- Helpers ---

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.ResourceOwnerID = sanitizer.CleanIdentifier(req.ResourceOwnerID)
	req.Staff = sanitizer.CleanIdentifier(req.Staff)
	req.Title = sanitizer.CleanFreeText(req.Title)
	req.Content = sanitizer.CleanFreeText(req.Content)
	req.Status = sanitizer.CleanFreeText(req.Status)
}

func (s *bookingService) validate(req *model.BookingRequest) error {
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func bookingFromRequest(req *model.BookingRequest) *model.Booking {
	booking := &model.Booking{
		ResourceOwnerID: req.ResourceOwnerID,
		Staff:           req.Staff,
		StartTime:       *req.StartTime,
		EndTime:         req.EndTime,
		Title:           req.Title,
		Content:         req.Content,
		Status:          req.Status,
	}
	if booking.Status == "" {
		booking.Status = "scheduled"
	}
	return booking
}

// checkConflict fetches the staff lane's overlap candidates and applies
// the detection rule. Runs inside the write transaction so the read and
// the subsequent write commit as one atomic unit.
func (s *bookingService) checkConflict(ctx context.Context, booking *model.Booking, excludeID string) error {
	if strings.TrimSpace(booking.Staff) == "" {
		return nil
	}

	candidates, err := s.repo.FindOverlapCandidates(ctx, booking.Staff, booking.StartTime, booking.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	if c := conflict.FindConflict(candidates, booking.Staff, booking.StartTime, booking.EndTime, excludeID); c != nil {
		return apperrors.Conflict(fmt.Sprintf(
			"Booking overlaps an existing booking for %s starting at %s (id %s)",
			c.Staff,
			c.StartTime.Format(time.RFC3339),
			c.ID,
		)).WithDetails(map[string]any{
			"conflicting_id":    c.ID,
			"conflicting_start": c.StartTime.Format(time.RFC3339),
			"staff":             c.Staff,
		})
	}
	return nil
}

// acquireStaffLock serializes writers targeting one staff lane for the
// duration of the read-check-write sequence. Blank staff skips locking
// because those bookings opt out of conflict enforcement.
func (s *bookingService) acquireStaffLock(ctx context.Context, staff string) (func(), error) {
	if strings.TrimSpace(staff) == "" {
		return func() {}, nil
	}

	lockID := repository.StaffLockID(staff)
	lock := &model.BookingLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.StaffLockTTL),
	}

	if _, err := s.lockRepo.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperrors.Conflict("Another booking request for this staff is in progress. Please try again.")
		}
		return nil, apperrors.Internal("Failed to acquire staff lock", err)
	}

	return func() {
		if err := s.lockRepo.Delete(ctx, lockID); err != nil {
			s.cfg.Log.Warn("Failed to release staff lock", "lock_id", lockID, "error", err)
		}
	}, nil
}

func (s *bookingService) mapLookupError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	if errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return apperrors.Internal("Failed to retrieve booking", err)
}

func (s *bookingService) publish(ctx context.Context, eventType string, booking *model.Booking) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishBookingEvent(ctx, eventType, booking); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"id", booking.ID,
			"error", err,
		)
	}
}

func (s *bookingService) enrichOwnerNames(ctx context.Context, bookings []*model.Booking) {
	if s.directory == nil {
		return
	}

	names := make(map[string]string)
	for _, b := range bookings {
		if b.ResourceOwnerID == "" {
			continue
		}
		name, seen := names[b.ResourceOwnerID]
		if !seen {
			profile, err := s.directory.LookupOwner(ctx, b.ResourceOwnerID)
			if err != nil {
				s.cfg.Log.Debug("Owner lookup failed",
					"resource_owner_id", b.ResourceOwnerID,
					"error", err,
				)
			} else {
				name = profile.Name
			}
			names[b.ResourceOwnerID] = name
		}
		b.OwnerName = name
	}
}
