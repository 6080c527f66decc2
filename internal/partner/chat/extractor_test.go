package chat

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"leadhook/internal/logger"
	"leadhook/pkg/errors"
	"leadhook/pkg/models"
)

func newTestExtractor(t *testing.T) (*LeadExtractor, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return NewLeadExtractor("chat", logger.NewWithCore(core)), logs
}

func payloadFromJSON(t *testing.T, raw string) models.Payload {
	t.Helper()
	var p models.Payload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func TestProcessMessage_ChatIDAndPhone(t *testing.T) {
	ext, logs := newTestExtractor(t)

	lead := ext.ProcessMessage(context.Background(), models.Payload{
		"message": map[string]interface{}{
			"from":            "+55 (11) 99999-8888",
			"text":            "Olá! [Chat ID:  abc-42 ] quero saber mais",
			"id":              "wamid.HBgM",
			"conversation_id": "conv-1",
			"timestamp":       "1700000000",
		},
	})

	require.NotNil(t, lead)
	assert.Equal(t, "+5511999998888", lead.Phone)
	assert.Equal(t, "abc-42", lead.Protocol)
	assert.Equal(t, "wamid.HBgM", lead.MessageID)
	assert.Equal(t, "conv-1", lead.ConversationID)
	assert.Equal(t, "1700000000", lead.Timestamp)

	infos := logs.FilterLevelExact(zapcore.InfoLevel).All()
	require.Len(t, infos, 1)
	assert.Equal(t, "abc-42", infos[0].ContextMap()["protocol"])
	assert.Equal(t, "+5511999998888", infos[0].ContextMap()["phone"])
	assert.Equal(t, "chat", infos[0].ContextMap()["partner"])
}

func TestProcessMessage_ProtocolPrecedence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "chat id beats wci", text: "WCI_B first then [Chat ID: A]", want: "A"},
		{name: "wci beats hash", text: "ticket #ZZZZZZ ref WCI_ABC123", want: "ABC123"},
		{name: "wci beats protocolo", text: "Protocolo: P1 WCI_W1", want: "W1"},
		{name: "protocolo with space", text: "Seu Protocolo: 2024XYZ foi aberto", want: "2024XYZ"},
		{name: "protocolo without space", text: "Protocolo:778899", want: "778899"},
		{name: "protocolo beats id", text: "ID: I1 Protocolo: P2", want: "P2"},
		{name: "id", text: "seu ID: 99AA ok", want: "99AA"},
		{name: "hash needs six", text: "pedido #ABCDEF", want: "ABCDEF"},
		{name: "wci stops at non alnum", text: "WCI_AB12-CD", want: "AB12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, _ := newTestExtractor(t)
			lead := ext.ProcessMessage(context.Background(), models.Payload{
				"message": map[string]interface{}{"from": "123", "text": tt.text},
			})
			require.NotNil(t, lead)
			assert.Equal(t, tt.want, lead.Protocol)
		})
	}
}

func TestProcessMessage_NoPatternMatches(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "plain text", text: "hello"},
		{name: "hash too short", text: "pedido #ABC12"},
		{name: "lowercase keyword", text: "protocolo: 123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, logs := newTestExtractor(t)
			lead := ext.ProcessMessage(context.Background(), models.Payload{
				"message": map[string]interface{}{"from": "123", "text": tt.text},
			})
			assert.Nil(t, lead)
			require.Equal(t, 1, logs.Len())
			assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
			assert.Equal(t, "Protocol not found in message", logs.All()[0].Message)
		})
	}
}

func TestProcessMessage_EmptyChatIDDoesNotFallBack(t *testing.T) {
	ext, logs := newTestExtractor(t)
	lead := ext.ProcessMessage(context.Background(), models.Payload{
		"message": map[string]interface{}{"from": "123", "text": "[Chat ID:   ] WCI_X1"},
	})
	assert.Nil(t, lead)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestProcessMessage_MissingPhone(t *testing.T) {
	ext, logs := newTestExtractor(t)

	lead := ext.ProcessMessage(context.Background(), models.Payload{
		"message": map[string]interface{}{"text": "[Chat ID: X]"},
	})

	assert.Nil(t, lead)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "Phone not found in message", entry.Message)
}

func TestProcessMessage_PhoneNormalizesToEmpty(t *testing.T) {
	ext, logs := newTestExtractor(t)

	lead := ext.ProcessMessage(context.Background(), models.Payload{
		"message": map[string]interface{}{"from": "unknown", "phone": "123", "text": "WCI_A1"},
	})

	assert.Nil(t, lead, "first truthy phone field wins even when it normalizes to empty")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Phone not found in message", logs.All()[0].Message)
}

func TestExtractPhone(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]interface{}
		want   string
	}{
		{name: "formatted number", record: map[string]interface{}{"from": "+1 (555) 123-4567"}, want: "+15551234567"},
		{name: "whatsapp jid", record: map[string]interface{}{"from": "5511999998888@s.whatsapp.net"}, want: "5511999998888"},
		{name: "json number", record: map[string]interface{}{"phone": float64(5511999998888)}, want: "5511999998888"},
		{name: "skips empty from", record: map[string]interface{}{"from": "", "phone_number": "22"}, want: "22"},
		{name: "skips zero", record: map[string]interface{}{"sender": float64(0), "contact_phone": "33"}, want: "33"},
		{name: "camel case last", record: map[string]interface{}{"phoneNumber": "44"}, want: "44"},
		{name: "order from before phone", record: map[string]interface{}{"phone": "2", "from": "1"}, want: "1"},
		{name: "none", record: map[string]interface{}{"name": "Ana"}, want: ""},
	}

	ext, _ := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ext.extractPhone(tt.record))
		})
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]interface{}
		want   string
	}{
		{name: "plain text", record: map[string]interface{}{"text": "hi"}, want: "hi"},
		{name: "nested body", record: map[string]interface{}{"text": map[string]interface{}{"body": "WCI_A"}}, want: "WCI_A"},
		{name: "body field", record: map[string]interface{}{"body": "b"}, want: "b"},
		{name: "content before message", record: map[string]interface{}{"message": "m", "content": "c"}, want: "c"},
		{name: "text_body last", record: map[string]interface{}{"text_body": "tb"}, want: "tb"},
		{
			name:   "nested without body stops probing",
			record: map[string]interface{}{"text": map[string]interface{}{"caption": "x"}, "body": "WCI_A"},
			want:   "",
		},
		{name: "absent", record: map[string]interface{}{"type": "image"}, want: ""},
	}

	ext, _ := newTestExtractor(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ext.extractText(tt.record))
		})
	}
}

func TestLocate_Precedence(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "message over messages",
			payload: `{"message":{"from":"1","text":"WCI_M"},"messages":[{"from":"2","text":"WCI_L"}]}`,
			want:    "M",
		},
		{
			name:    "messages first element",
			payload: `{"messages":[{"from":"1","text":"WCI_FIRST"},{"from":"2","text":"WCI_SECOND"}],"data":{"message":{"from":"3","text":"WCI_D"}}}`,
			want:    "FIRST",
		},
		{
			name:    "empty messages falls through to data",
			payload: `{"messages":[],"data":{"message":{"from":"3","text":"WCI_D"}}}`,
			want:    "D",
		},
		{
			name:    "payload itself",
			payload: `{"from":"9","body":"Protocolo: SELF1"}`,
			want:    "SELF1",
		},
		{
			name:    "data without message uses payload",
			payload: `{"data":{"other":1},"from":"9","text":"#ROOT12"}`,
			want:    "ROOT12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, _ := newTestExtractor(t)
			lead, err := ext.Extract(payloadFromJSON(t, tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, lead.Protocol)
		})
	}
}

func TestProcessMessage_MalformedRecord(t *testing.T) {
	tests := []struct {
		name    string
		payload models.Payload
	}{
		{name: "message is a string", payload: models.Payload{"message": "hello WCI_A"}},
		{name: "message is null", payload: models.Payload{"message": nil}},
		{name: "first of messages is a number", payload: models.Payload{"messages": []interface{}{float64(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, logs := newTestExtractor(t)

			var lead *models.Lead
			assert.NotPanics(t, func() {
				lead = ext.ProcessMessage(context.Background(), tt.payload)
			})
			assert.Nil(t, lead)

			errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
			require.Len(t, errs, 1)
			assert.Equal(t, "Failed to process partner message", errs[0].Message)
			assert.Contains(t, errs[0].ContextMap()["error"], "MALFORMED_PAYLOAD")
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	ext, _ := newTestExtractor(t)

	_, err := ext.Extract(models.Payload{"message": "x"})
	assert.ErrorIs(t, err, errors.ErrMalformedPayload)

	_, err = ext.Extract(models.Payload{"message": map[string]interface{}{"from": "1"}})
	assert.ErrorIs(t, err, errors.ErrMissingProtocol)

	_, err = ext.Extract(models.Payload{"message": map[string]interface{}{"text": "WCI_A"}})
	assert.ErrorIs(t, err, errors.ErrMissingPhone)
}

func TestProcessMessage_RecoversFromPanickingRule(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rules := DefaultRules()
	rules.Locators = append([]LocatorRule{{
		Name: "broken",
		Locate: func(models.Payload) (interface{}, bool) {
			panic("unexpected shape")
		},
	}}, rules.Locators...)
	ext := NewLeadExtractorWithRules("chat", rules, logger.NewWithCore(core))

	lead := ext.ProcessMessage(context.Background(), models.Payload{})

	assert.Nil(t, lead)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[0].Level)
}

func TestProcessMessage_Idempotent(t *testing.T) {
	ext, _ := newTestExtractor(t)
	payload := payloadFromJSON(t, `{"data":{"message":{"from":"+1 555","text":{"body":"[Chat ID: Z9]"},"id":"m1"}}}`)
	before := payloadFromJSON(t, `{"data":{"message":{"from":"+1 555","text":{"body":"[Chat ID: Z9]"},"id":"m1"}}}`)

	first := ext.ProcessMessage(context.Background(), payload)
	second := ext.ProcessMessage(context.Background(), payload)

	require.NotNil(t, first)
	assert.Equal(t, first, second)
	assert.Equal(t, before, payload, "payload must not be mutated")
}

func TestProcessMessage_NumericIDIsStringified(t *testing.T) {
	ext, _ := newTestExtractor(t)
	lead := ext.ProcessMessage(context.Background(), payloadFromJSON(t,
		`{"message":{"from":"1","text":"WCI_A","id":12345678901,"timestamp":1700000000}}`))

	require.NotNil(t, lead)
	assert.Equal(t, "12345678901", lead.MessageID)
	assert.Equal(t, "", lead.ConversationID)
	assert.Equal(t, float64(1700000000), lead.Timestamp)
}

func TestDefaultRules_Order(t *testing.T) {
	rules := DefaultRules()

	names := make([]string, 0, len(rules.Locators))
	for _, l := range rules.Locators {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"message", "messages[0]", "data.message"}, names)
	assert.Equal(t, []string{"from", "phone", "phone_number", "sender", "contact_phone", "phoneNumber"}, rules.PhoneFields)
	assert.Equal(t, []string{"text", "body", "content", "message", "text_body"}, rules.TextFields)

	patterns := make([]string, 0, len(rules.Patterns))
	for _, p := range rules.Patterns {
		patterns = append(patterns, p.Name)
	}
	assert.Equal(t, "chat_id", rules.Primary.Name)
	assert.Equal(t, []string{"wci", "protocolo", "id", "hash"}, patterns)
}

func TestNewLeadExtractor_Defaults(t *testing.T) {
	ext := NewLeadExtractor("", nil)
	assert.Equal(t, DefaultName, ext.Name())
	assert.Nil(t, ext.ProcessMessage(context.Background(), nil))
}

func TestProcessMessage_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	e, _ := newTestExtractor(t)
	lead := e.ProcessMessage(context.Background(), models.Payload{
		"from": "+5511988887777",
		"text": "Hi [Chat ID: ABC123]",
	})
	require.NotNil(t, lead)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "chat.process_message", spans[0].Name())
}
