package kafka

import (
	"context"

	"github.com/XiaoHoSheng/My-Crm-Project-sub000/pkg/model"
)

// Booking lifecycle event types.
const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
)

// BookingPublisher emits booking lifecycle events for downstream
// timeline and notification consumers.
type BookingPublisher struct {
	producer *Producer
	source   string
}

func NewBookingPublisher(producer *Producer, source string) *BookingPublisher {
	return &BookingPublisher{
		producer: producer,
		source:   source,
	}
}

func (p *BookingPublisher) PublishBookingEvent(ctx context.Context, eventType string, booking *model.Booking) error {
	msg, err := NewEvent(eventType, p.source, booking.ID, booking)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *BookingPublisher) Close() error {
	return p.producer.Close()
}
