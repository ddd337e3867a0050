// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package backend

import (
	"context"
	"net/http"

	"github.com/danielhkuo/verivote/models"
)

// HTTPBotDetector asks the bot-detection provider for a fresh verdict.
type HTTPBotDetector struct {
	c *client
}

func NewHTTPBotDetector(baseURL string, hc *http.Client) *HTTPBotDetector {
	return &HTTPBotDetector{c: newClient(baseURL, hc)}
}

func (h *HTTPBotDetector) Detect(ctx context.Context) (models.BotVerdict, error) {
	var res struct {
		IsBot     bool   `json:"is_bot"`
		Pending   bool   `json:"pending"`
		RequestID string `json:"request_id"`
	}
	if err := h.c.do(ctx, "bot check", http.MethodPost, "/api/bot-check", nil, &res); err != nil {
		return models.BotVerdict{}, err
	}
	return models.BotVerdict{IsBot: res.IsBot, Pending: res.Pending, RequestID: res.RequestID}, nil
}
