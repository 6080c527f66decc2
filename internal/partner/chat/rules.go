package chat

import (
	"regexp"

	"leadhook/pkg/models"
)

// LocatorRule finds the message record inside a payload. Rules are tried in
// order; the first one that matches wins. When none match, the payload itself
// is the record.
type LocatorRule struct {
	Name   string
	Locate func(payload models.Payload) (interface{}, bool)
}

// ProtocolPattern captures the protocol token in group 1.
type ProtocolPattern struct {
	Name    string
	Pattern *regexp.Regexp
}

// Rules holds every ordered lookup list the extractor evaluates. Order is part
// of the contract: it encodes which payload shape and which token format win
// when several are present.
type Rules struct {
	Locators    []LocatorRule
	PhoneFields []string
	TextFields  []string
	// Primary beats every entry in Patterns, wherever it appears in the text.
	Primary  ProtocolPattern
	Patterns []ProtocolPattern
}

func DefaultRules() Rules {
	return Rules{
		Locators: []LocatorRule{
			{Name: "message", Locate: topLevelMessage},
			{Name: "messages[0]", Locate: firstOfMessages},
			{Name: "data.message", Locate: nestedDataMessage},
		},
		PhoneFields: []string{"from", "phone", "phone_number", "sender", "contact_phone", "phoneNumber"},
		TextFields:  []string{"text", "body", "content", "message", "text_body"},
		Primary: ProtocolPattern{
			Name:    "chat_id",
			Pattern: regexp.MustCompile(`\[Chat ID:(.+?)\]`),
		},
		Patterns: []ProtocolPattern{
			{Name: "wci", Pattern: regexp.MustCompile(`WCI_([A-Za-z0-9]+)`)},
			{Name: "protocolo", Pattern: regexp.MustCompile(`Protocolo: ?([A-Za-z0-9]+)`)},
			{Name: "id", Pattern: regexp.MustCompile(`ID: ?([A-Za-z0-9]+)`)},
			{Name: "hash", Pattern: regexp.MustCompile(`#([A-Za-z0-9]{6,})`)},
		},
	}
}

func topLevelMessage(payload models.Payload) (interface{}, bool) {
	return payload.Field("message")
}

func firstOfMessages(payload models.Payload) (interface{}, bool) {
	value, ok := payload.Field("messages")
	if !ok {
		return nil, false
	}
	list, ok := value.([]interface{})
	if !ok || len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

func nestedDataMessage(payload models.Payload) (interface{}, bool) {
	value, ok := payload.Field("data")
	if !ok {
		return nil, false
	}
	data, ok := models.AsMap(value)
	if !ok {
		return nil, false
	}
	message, ok := data["message"]
	return message, ok
}
