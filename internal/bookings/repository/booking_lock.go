package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/config"
	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

const LockCollectionName = "Booking_locks"

// StaffLockID is the deterministic lock key for one staff lane. All
// writers targeting the same staff contend on the same document.
func StaffLockID(staff string) string {
	return "staff_lock_" + strings.TrimSpace(staff)
}

// BookingLockRepository provides advisory locks over the lock
// collection. Create fails with a duplicate key error when the lock is
// already held.
type BookingLockRepository interface {
	Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error)
	Delete(ctx context.Context, lockID string) error
}

type mongoBookingLockRepository struct {
	collection *mongo.Collection
}

func NewBookingLockRepository(cfg *config.Config) BookingLockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	lock.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		return nil, err
	}

	return lock, nil
}

func (r *mongoBookingLockRepository) Delete(ctx context.Context, lockID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID}); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", lockID, err)
	}
	return nil
}
