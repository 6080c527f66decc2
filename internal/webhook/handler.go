// Package webhook receives partner payloads over HTTP and drives them through
// extraction, deduplication and the lead sink.
package webhook

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leadhook/internal/logger"
	"leadhook/internal/partner"
	"leadhook/internal/sink"
	"leadhook/pkg/errors"
	"leadhook/pkg/logging"
	"leadhook/pkg/metrics"
	"leadhook/pkg/models"
)

type PartnerRegistry interface {
	Get(name string) (partner.Partner, error)
	Names() []string
}

type Deduplicator interface {
	IsUnique(ctx context.Context, partner string, lead *models.Lead) (bool, error)
	Release(ctx context.Context, partner string, lead *models.Lead) error
}

type Handler struct {
	partners PartnerRegistry
	dedup    Deduplicator
	sink     sink.Sink
	logger   logger.Logger
	now      func() time.Time
}

func NewHandler(partners PartnerRegistry, dedup Deduplicator, s sink.Sink, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NopLogger()
	}
	return &Handler{
		partners: partners,
		dedup:    dedup,
		sink:     s,
		logger:   log,
		now:      time.Now,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/partners", h.ListPartners)
		v1.POST("/webhooks/:partner", h.Receive)
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

// ListPartners godoc
// @Summary      List partners
// @Description  Names of the partner adapters webhooks can be posted to
// @Tags         webhooks
// @Produce      json
// @Success      200  {object}  PartnersResponse
// @Router       /partners [get]
func (h *Handler) ListPartners(c *gin.Context) {
	c.JSON(http.StatusOK, PartnersResponse{Partners: h.partners.Names()})
}

// Receive godoc
// @Summary      Receive a partner webhook
// @Description  Extracts a lead from the payload, drops duplicates and hands the lead to the sink.
// @Description  A failed hand-off releases the dedup key so the partner can redeliver.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        partner  path      string                  true  "Partner name"
// @Param        payload  body      object                  true  "Partner webhook payload"
// @Success      201      {object}  AcceptedResponse
// @Success      200      {object}  StatusResponse          "duplicate"
// @Success      202      {object}  StatusResponse          "no lead in payload"
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Failure      503      {object}  errors.ErrorResponse
// @Router       /webhooks/{partner} [post]
func (h *Handler) Receive(c *gin.Context) {
	name := c.Param("partner")
	p, err := h.partners.Get(name)
	if err != nil {
		h.handleError(c, err)
		return
	}

	start := h.now()
	ctx := logging.WithPartner(c.Request.Context(), name)
	c.Request = c.Request.WithContext(ctx)
	defer func() {
		metrics.ObserveLeadDuration(name, time.Since(start))
	}()

	var payload models.Payload
	if err := c.ShouldBindJSON(&payload); err != nil || payload == nil {
		metrics.IncLeadProcessed(name, models.StatusFailed)
		appErr := errors.ErrMalformedPayload.WithDetail("message", "request body must be a JSON object")
		if err != nil {
			appErr = appErr.WithCause(err)
		}
		h.handleError(c, appErr)
		return
	}

	lead := p.ProcessMessage(ctx, payload)
	if lead == nil {
		metrics.IncLeadProcessed(name, models.StatusIgnored)
		c.JSON(http.StatusAccepted, StatusResponse{Status: models.StatusIgnored})
		return
	}

	unique, err := h.dedup.IsUnique(ctx, name, lead)
	if err != nil {
		metrics.IncLeadProcessed(name, models.StatusFailed)
		h.handleError(c, errors.ErrServiceUnavailable.WithCause(err))
		return
	}
	if !unique {
		metrics.IncLeadProcessed(name, models.StatusDuplicate)
		h.logger.InfowCtx(ctx, "Duplicate lead skipped",
			"protocol", lead.Protocol,
			"message_id", lead.MessageID,
		)
		c.JSON(http.StatusOK, StatusResponse{Status: models.StatusDuplicate})
		return
	}

	event := sink.NewEvent(name, lead, h.now())
	if err := h.sink.Publish(ctx, event); err != nil {
		metrics.IncLeadProcessed(name, models.StatusFailed)
		if relErr := h.dedup.Release(ctx, name, lead); relErr != nil {
			h.logger.WarnwCtx(ctx, "Failed to release dedup key, redelivery will be reported as duplicate",
				"event_id", event.ID,
				"error", relErr,
			)
		}
		h.handleError(c, errors.ErrServiceUnavailable.WithCause(err))
		return
	}

	metrics.IncLeadProcessed(name, models.StatusAccepted)
	c.JSON(http.StatusCreated, AcceptedResponse{
		Status:  models.StatusAccepted,
		EventID: event.ID,
		Lead:    lead,
	})
}
