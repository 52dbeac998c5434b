package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingserrors "github.com/XiaoHoSheng/My-Crm-Project-sub000/internal/bookings/errors"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/config"
	mongotx "github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/db/mongo"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/sanitizer"
)

const (
	CollectionName = "Bookings"

	// Conflict candidates fetched per check. A staff member cannot
	// plausibly hold more simultaneous overlap candidates in one lane.
	maxOverlapCandidates = 50
)

// WindowQuery bounds a calendar fetch. From/To are required; the
// remaining fields are optional filters.
type WindowQuery struct {
	From time.Time
	To   time.Time

	ResourceOwnerID string
	Staff           string
	Keyword         string
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	Replace(ctx context.Context, id string, booking *model.Booking) error
	Delete(ctx context.Context, id string) error
	FindWindow(ctx context.Context, q WindowQuery, limit, offset int64) ([]*model.Booking, error)
	CountWindow(ctx context.Context, q WindowQuery) (int64, error)
	FindOverlapCandidates(ctx context.Context, staff string, start time.Time, end *time.Time) ([]*model.Booking, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout wraps the context with a timeout unless we are already
// inside a transaction; a SessionContext cannot be wrapped without
// breaking transaction semantics.
func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.(mongo.SessionContext); ok {
		return ctx, func() {}
	}

	if deadline, has := ctx.Deadline(); has {
		if remaining := time.Until(deadline); remaining < timeout {
			return context.WithTimeout(ctx, remaining)
		}
	}

	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	booking.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}

	return &booking, nil
}

// Replace overwrites every mutable field. Using a full document
// replace (rather than $set) guarantees a cleared end_time actually
// disappears from the stored document.
func (r *mongoBookingRepository) Replace(ctx context.Context, id string, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	doc := *booking
	doc.ID = "" // _id comes from the filter, never the replacement

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": objectID}, &doc)
	if err != nil {
		return fmt.Errorf("failed to replace booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", bookingserrors.ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}

	return nil
}

func (r *mongoBookingRepository) FindWindow(ctx context.Context, q WindowQuery, limit, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, buildWindowFilter(q), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) CountWindow(ctx context.Context, q WindowQuery) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, buildWindowFilter(q))
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// FindOverlapCandidates returns bookings for the staff lane that could
// collide with the candidate interval, ascending by start. The precise
// overlap decision stays with the conflict package; this narrows the
// set the database has to hand over.
func (r *mongoBookingRepository) FindOverlapCandidates(ctx context.Context, staff string, start time.Time, end *time.Time) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "start_time", Value: 1}}).
		SetLimit(maxOverlapCandidates)

	cursor, err := r.collection.Find(ctx, buildOverlapFilter(staff, start, end), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlap candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*model.Booking
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode overlap candidates: %w", err)
	}

	return bookings, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

// buildWindowFilter selects bookings whose interval intersects
// [q.From, q.To) plus, for point bookings without an end, whose start
// falls inside the inclusive window.
func buildWindowFilter(q WindowQuery) bson.M {
	timeFilter := bson.M{"$or": []bson.M{
		{
			"start_time": bson.M{"$lt": q.To},
			"end_time":   bson.M{"$gt": q.From},
		},
		{
			"end_time":   bson.M{"$exists": false},
			"start_time": bson.M{"$gte": q.From, "$lte": q.To},
		},
	}}

	conditions := []bson.M{timeFilter}

	if q.ResourceOwnerID != "" {
		conditions = append(conditions, bson.M{"resource_owner_id": q.ResourceOwnerID})
	}
	if q.Staff != "" {
		conditions = append(conditions, bson.M{"staff": q.Staff})
	}
	if q.Keyword != "" {
		pattern := primitive.Regex{Pattern: sanitizer.EscapeKeyword(q.Keyword), Options: "i"}
		conditions = append(conditions, bson.M{"$or": []bson.M{
			{"title": pattern},
			{"content": pattern},
			{"staff": pattern},
		}})
	}

	if len(conditions) == 1 {
		return timeFilter
	}
	return bson.M{"$and": conditions}
}

// buildOverlapFilter narrows to the staff's bookings starting before
// the candidate's effective end whose own effective end lies after the
// candidate start. Bookings without an end occupy [start, start), so
// for them the start itself must fall strictly inside the candidate.
func buildOverlapFilter(staff string, start time.Time, end *time.Time) bson.M {
	candEnd := start
	if end != nil {
		candEnd = *end
	}

	return bson.M{
		"staff":      staff,
		"start_time": bson.M{"$lt": candEnd},
		"$or": []bson.M{
			{"end_time": bson.M{"$gt": start}},
			{
				"end_time":   bson.M{"$exists": false},
				"start_time": bson.M{"$gt": start},
			},
		},
	}
}
