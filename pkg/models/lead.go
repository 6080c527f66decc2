package models

import "fmt"

// Lead is the normalized result of a partner adapter.
type Lead struct {
	Phone          string      `json:"phone"`
	Protocol       string      `json:"protocol"`
	MessageID      string      `json:"message_id"`
	ConversationID string      `json:"conversation_id"`
	Timestamp      interface{} `json:"timestamp,omitempty"`
}

// NewLead builds a Lead. Phone and protocol are both required; a Lead is never
// partially valid.
func NewLead(phone, protocol string, opts ...LeadOption) (*Lead, error) {
	lead := &Lead{
		Phone:    phone,
		Protocol: protocol,
	}
	for _, opt := range opts {
		opt(lead)
	}
	if err := ValidateLead(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

type LeadOption func(*Lead)

func WithMessageID(id string) LeadOption {
	return func(l *Lead) {
		l.MessageID = id
	}
}

func WithConversationID(id string) LeadOption {
	return func(l *Lead) {
		l.ConversationID = id
	}
}

func WithTimestamp(ts interface{}) LeadOption {
	return func(l *Lead) {
		l.Timestamp = ts
	}
}

func (l *Lead) String() string {
	return fmt.Sprintf("lead(protocol=%s, phone=%s)", l.Protocol, l.Phone)
}
