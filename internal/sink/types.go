// Package sink hands accepted leads to downstream routing.
package sink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"leadhook/pkg/models"
)

// Sink delivers lead events. Publish must be safe for concurrent use.
type Sink interface {
	Publish(ctx context.Context, event *models.LeadEvent) error
	Close() error
}

// NewEvent stamps lead with a fresh event id and the receive time.
func NewEvent(partner string, lead *models.Lead, receivedAt time.Time) *models.LeadEvent {
	return models.NewLeadEventBuilder().
		WithID(uuid.NewString()).
		WithPartner(partner).
		WithReceivedAt(receivedAt.UTC()).
		WithLead(*lead).
		Build()
}
