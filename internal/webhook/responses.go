package webhook

import "leadhook/pkg/models"

type StatusResponse struct {
	Status string `json:"status" example:"ignored"`
}

type AcceptedResponse struct {
	Status  string       `json:"status" example:"accepted"`
	EventID string       `json:"event_id" example:"3f1c2d6e-8a4b-4d7e-9b1a-2c3d4e5f6a7b"`
	Lead    *models.Lead `json:"lead"`
}

type PartnersResponse struct {
	Partners []string `json:"partners"`
}
