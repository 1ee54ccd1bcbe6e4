// Package audit turns entity events into structured log records.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/springbucks/internal/domain"
)

type Handler struct {
	logger *slog.Logger
}

func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

func (h *Handler) HandleCoffeeSaved(ctx context.Context, payload []byte) error {
	var event domain.CoffeeSavedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal coffee saved event: %w", err)
	}

	h.logger.InfoContext(ctx, "coffee saved",
		"event_id", event.EventID,
		"coffee_id", event.CoffeeID,
		"name", event.Name,
		"price", event.Price,
		"timestamp", event.Timestamp,
	)
	return nil
}

func (h *Handler) HandleOrderSaved(ctx context.Context, payload []byte) error {
	var event domain.OrderSavedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order saved event: %w", err)
	}

	h.logger.InfoContext(ctx, "order saved",
		"event_id", event.EventID,
		"order_id", event.OrderID,
		"customer", event.Customer,
		"state", event.State,
		"coffee_ids", event.CoffeeIDs,
		"timestamp", event.Timestamp,
	)
	return nil
}
