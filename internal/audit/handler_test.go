package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/currency"

	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/money"
)

func TestHandler_HandleCoffeeSaved(t *testing.T) {
	var logs bytes.Buffer
	h := NewHandler(slog.New(slog.NewJSONHandler(&logs, nil)))

	event := domain.NewCoffeeSavedEvent(domain.Coffee{
		ID:         3,
		Name:       "espresso",
		Price:      money.Of(currency.TWD, 100),
		UpdateTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if err := h.HandleCoffeeSaved(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(logs.Bytes(), &record); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", logs.String(), err)
	}
	if record["msg"] != "coffee saved" {
		t.Errorf("unexpected message: %v", record["msg"])
	}
	if record["price"] != "TWD 100.00" {
		t.Errorf("expected price TWD 100.00, got %v", record["price"])
	}
	if record["event_id"] != event.EventID {
		t.Errorf("expected event id %s, got %v", event.EventID, record["event_id"])
	}
}

func TestHandler_HandleOrderSaved(t *testing.T) {
	t.Run("logs one record per event", func(t *testing.T) {
		var logs bytes.Buffer
		h := NewHandler(slog.New(slog.NewJSONHandler(&logs, nil)))

		for _, id := range []int64{1, 2} {
			payload, err := json.Marshal(domain.NewOrderSavedEvent(domain.CoffeeOrder{
				ID:       id,
				Customer: "Li Lei",
				Items:    []domain.Coffee{{ID: 1}, {ID: 2}},
			}))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if err := h.HandleOrderSaved(context.Background(), payload); err != nil {
				t.Fatalf("handle: %v", err)
			}
		}

		if got := strings.Count(logs.String(), `"msg":"order saved"`); got != 2 {
			t.Errorf("expected 2 records, got %d", got)
		}
		if !strings.Contains(logs.String(), `"coffee_ids":[1,2]`) {
			t.Errorf("expected coffee ids in record: %s", logs.String())
		}
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		var logs bytes.Buffer
		h := NewHandler(slog.New(slog.NewJSONHandler(&logs, nil)))

		if err := h.HandleOrderSaved(context.Background(), []byte("not json")); err == nil {
			t.Fatal("expected an error")
		}
		if err := h.HandleCoffeeSaved(context.Background(), []byte(`{"coffee_id":"x"}`)); err == nil {
			t.Fatal("expected an error")
		}
		if logs.Len() != 0 {
			t.Errorf("expected no records, got %s", logs.String())
		}
	})
}
