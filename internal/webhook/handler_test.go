package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadhook/internal/config"
	"leadhook/internal/dedup"
	"leadhook/internal/logger"
	"leadhook/internal/partner"
	"leadhook/internal/partner/chat"
	"leadhook/pkg/models"
)

type memoryRepository struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (m *memoryRepository) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func (m *memoryRepository) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seen, key)
	return nil
}

type captureSink struct {
	mu     sync.Mutex
	events []*models.LeadEvent
	err    error
}

func (s *captureSink) Publish(_ context.Context, event *models.LeadEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) Close() error { return nil }

type fixture struct {
	engine *gin.Engine
	repo   *memoryRepository
	sink   *captureSink
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := partner.NewRegistry()
	require.NoError(t, registry.Register(chat.NewLeadExtractor("whatsapp", nil)))

	repo := &memoryRepository{seen: make(map[string]bool)}
	svc := dedup.NewService(repo, config.DedupConfig{Enabled: true, OnRedisError: "deny"}, nil)
	s := &captureSink{}

	engine := gin.New()
	NewHandler(registry, svc, s, logger.NopLogger()).RegisterRoutes(engine)
	return &fixture{engine: engine, repo: repo, sink: s}
}

func (f *fixture) post(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const leadPayload = `{"messages":[{"id":"wamid.1","from":"55 (11) 98888-7777","text":{"body":"Hi [Chat ID: ABC123]"}}]}`

func TestReceive_Accepted(t *testing.T) {
	f := newFixture(t)

	w := f.post("/api/v1/webhooks/whatsapp", leadPayload)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "accepted", body["status"])
	assert.NotEmpty(t, body["event_id"])
	lead := body["lead"].(map[string]interface{})
	assert.Equal(t, "5511988887777", lead["phone"])
	assert.Equal(t, "ABC123", lead["protocol"])
	assert.Equal(t, "wamid.1", lead["message_id"])

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, body["event_id"], f.sink.events[0].ID)
	assert.Equal(t, "whatsapp", f.sink.events[0].Partner)
}

func TestReceive_Duplicate(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusCreated, f.post("/api/v1/webhooks/whatsapp", leadPayload).Code)

	w := f.post("/api/v1/webhooks/whatsapp", leadPayload)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "duplicate", decode(t, w)["status"])
	assert.Len(t, f.sink.events, 1)
}

func TestReceive_Outcomes(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{
			name:   "unknown partner",
			path:   "/api/v1/webhooks/telegram",
			body:   leadPayload,
			status: http.StatusNotFound,
			code:   "UNKNOWN_PARTNER",
		},
		{
			name:   "array body",
			path:   "/api/v1/webhooks/whatsapp",
			body:   `[1,2]`,
			status: http.StatusBadRequest,
			code:   "MALFORMED_PAYLOAD",
		},
		{
			name:   "null body",
			path:   "/api/v1/webhooks/whatsapp",
			body:   `null`,
			status: http.StatusBadRequest,
			code:   "MALFORMED_PAYLOAD",
		},
		{
			name:   "no protocol",
			path:   "/api/v1/webhooks/whatsapp",
			body:   `{"from":"+5511","text":"hello"}`,
			status: http.StatusAccepted,
		},
		{
			name:   "no phone",
			path:   "/api/v1/webhooks/whatsapp",
			body:   `{"text":"WCI_X1"}`,
			status: http.StatusAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.post(tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)

			body := decode(t, w)
			if tt.code != "" {
				assert.Equal(t, tt.code, body["error_code"])
			} else {
				assert.Equal(t, "ignored", body["status"])
			}
			assert.Empty(t, f.sink.events)
		})
	}
}

func TestReceive_Unavailable(t *testing.T) {
	t.Run("dedup store", func(t *testing.T) {
		f := newFixture(t)
		f.repo.err = errors.New("redis down")

		w := f.post("/api/v1/webhooks/whatsapp", leadPayload)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Empty(t, f.sink.events)
	})

	t.Run("sink", func(t *testing.T) {
		f := newFixture(t)
		f.sink.err = errors.New("kafka down")

		w := f.post("/api/v1/webhooks/whatsapp", leadPayload)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decode(t, w)["error_code"])
	})
}

func TestReceive_SinkFailureAllowsRedelivery(t *testing.T) {
	f := newFixture(t)
	f.sink.err = errors.New("kafka down")

	w := f.post("/api/v1/webhooks/whatsapp", leadPayload)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, f.repo.seen)

	f.sink.err = nil
	w = f.post("/api/v1/webhooks/whatsapp", leadPayload)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "accepted", decode(t, w)["status"])
	assert.Len(t, f.sink.events, 1)

	w = f.post("/api/v1/webhooks/whatsapp", leadPayload)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, f.sink.events, 1)
}

func TestListPartners(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/partners", nil)
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"whatsapp"}, decode(t, w)["partners"])
}
