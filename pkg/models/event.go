package models

import "time"

// LeadEvent wraps an extracted lead for hand-off to downstream routing.
type LeadEvent struct {
	ID         string    `json:"id"`
	Partner    string    `json:"partner"`
	ReceivedAt time.Time `json:"received_at"`
	Lead       Lead      `json:"lead"`
}

const (
	StatusAccepted  = "accepted"
	StatusIgnored   = "ignored"
	StatusDuplicate = "duplicate"
	StatusFailed    = "failed"
)

type LeadEventBuilder struct {
	event *LeadEvent
}

func NewLeadEventBuilder() *LeadEventBuilder {
	return &LeadEventBuilder{
		event: &LeadEvent{},
	}
}

func (b *LeadEventBuilder) WithID(id string) *LeadEventBuilder {
	b.event.ID = id
	return b
}

func (b *LeadEventBuilder) WithPartner(partner string) *LeadEventBuilder {
	b.event.Partner = partner
	return b
}

func (b *LeadEventBuilder) WithReceivedAt(receivedAt time.Time) *LeadEventBuilder {
	b.event.ReceivedAt = receivedAt
	return b
}

func (b *LeadEventBuilder) WithLead(lead Lead) *LeadEventBuilder {
	b.event.Lead = lead
	return b
}

func (b *LeadEventBuilder) Build() *LeadEvent {
	if b.event.ReceivedAt.IsZero() {
		b.event.ReceivedAt = time.Now().UTC()
	}
	return b.event
}
