package orders

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/currency"

	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/messaging"
	"github.com/joao-fontenele/springbucks/internal/messaging/messagingtest"
	"github.com/joao-fontenele/springbucks/internal/money"
	"github.com/joao-fontenele/springbucks/internal/storage"
	"github.com/joao-fontenele/springbucks/internal/storage/storagetest"
)

type fixture struct {
	coffees *storagetest.Memory[domain.Coffee]
	orders  *storagetest.Memory[domain.CoffeeOrder]
	mux     *http.ServeMux
}

func newFixture(t *testing.T, publisher messaging.Publisher) fixture {
	t.Helper()

	codec := money.NewCodec(currency.TWD)
	f := fixture{
		coffees: storagetest.NewMemory[domain.Coffee](storage.CoffeeMapping{Codec: codec}),
		orders:  storagetest.NewMemory[domain.CoffeeOrder](storage.OrderMapping{Coffees: storage.CoffeeMapping{Codec: codec}}),
		mux:     http.NewServeMux(),
	}

	for _, c := range []domain.Coffee{
		{Name: "espresso", Price: money.Of(currency.TWD, 100)},
		{Name: "latte", Price: money.Of(currency.TWD, 150)},
	} {
		if err := f.coffees.Save(context.Background(), &c); err != nil {
			t.Fatalf("seed coffee: %v", err)
		}
	}

	h := NewHandler(f.orders, f.coffees, publisher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.mux.HandleFunc("POST /orders", h.HandleCreate)
	f.mux.HandleFunc("GET /orders", h.HandleList)
	f.mux.HandleFunc("GET /orders/{id}", h.HandleGet)
	f.mux.HandleFunc("PATCH /orders/{id}/state", h.HandleUpdateState)
	f.mux.HandleFunc("DELETE /orders/{id}/items/{coffeeId}", h.HandleRemoveItem)
	f.mux.HandleFunc("DELETE /orders/{id}", h.HandleDelete)
	return f
}

func (f fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, httptest.NewRequest(method, path, r))
	return rec
}

func decodeOrder(t *testing.T, rec *httptest.ResponseRecorder) domain.CoffeeOrder {
	t.Helper()

	var o domain.CoffeeOrder
	if err := json.NewDecoder(rec.Body).Decode(&o); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return o
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates an order referencing existing coffees", func(t *testing.T) {
		publisher := &messagingtest.Publisher{}
		f := newFixture(t, publisher)

		rec := f.do(http.MethodPost, "/orders", `{"customer":"Li Lei","state":0,"coffee_ids":[1,2]}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		got := decodeOrder(t, rec)
		if got.ID == 0 || got.Customer != "Li Lei" {
			t.Errorf("unexpected order: %+v", got)
		}
		if ids := got.CoffeeIDs(); len(ids) != 2 || ids[0] != 1 || ids[1] != 2 {
			t.Errorf("expected items [1 2], got %v", ids)
		}

		events := publisher.Events()
		if len(events) != 1 || events[0].Topic != domain.TopicOrderSaved {
			t.Fatalf("expected one order.saved event, got %+v", events)
		}
		event, ok := events[0].Event.(domain.OrderSavedEvent)
		if !ok {
			t.Fatalf("expected OrderSavedEvent, got %T", events[0].Event)
		}
		if event.OrderID != got.ID || len(event.CoffeeIDs) != 2 {
			t.Errorf("unexpected event: %+v", event)
		}
	})

	t.Run("returns 422 for an unknown coffee", func(t *testing.T) {
		f := newFixture(t, nil)

		rec := f.do(http.MethodPost, "/orders", `{"customer":"Li Lei","coffee_ids":[1,99]}`)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status 422, got %d", rec.Code)
		}
		if f.orders.Len() != 0 {
			t.Errorf("expected no order saved, got %d", f.orders.Len())
		}
	})

	t.Run("returns 400 for a malformed body", func(t *testing.T) {
		f := newFixture(t, nil)

		rec := f.do(http.MethodPost, "/orders", `{"customer":`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("still succeeds when publishing fails", func(t *testing.T) {
		f := newFixture(t, &messagingtest.Publisher{Err: io.ErrClosedPipe})

		rec := f.do(http.MethodPost, "/orders", `{"customer":"Han Meimei","coffee_ids":[2]}`)
		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleGetAndList(t *testing.T) {
	f := newFixture(t, nil)
	for _, body := range []string{
		`{"customer":"Li Lei","coffee_ids":[1]}`,
		`{"customer":"Li Lei","coffee_ids":[1,2]}`,
	} {
		if rec := f.do(http.MethodPost, "/orders", body); rec.Code != http.StatusCreated {
			t.Fatalf("create: status %d", rec.Code)
		}
	}

	t.Run("gets one order", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/orders/2", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if got := decodeOrder(t, rec); len(got.Items) != 2 {
			t.Errorf("expected 2 items, got %d", len(got.Items))
		}
	})

	t.Run("returns 404 for an unknown order", func(t *testing.T) {
		if rec := f.do(http.MethodGet, "/orders/9", ""); rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("lists orders by id", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/orders", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var got []domain.CoffeeOrder
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(got) != 2 || got[0].ID != 1 || got[1].ID != 2 {
			t.Errorf("unexpected orders: %+v", got)
		}
	})

	t.Run("returns 503 when listing fails", func(t *testing.T) {
		f.orders.Errors["find_all"] = storage.ErrConnection
		defer delete(f.orders.Errors, "find_all")

		if rec := f.do(http.MethodGet, "/orders", ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUpdateState(t *testing.T) {
	f := newFixture(t, nil)
	created := f.do(http.MethodPost, "/orders", `{"customer":"Li Lei","coffee_ids":[1]}`)
	before := decodeOrder(t, created)

	t.Run("updates the state and bumps update time", func(t *testing.T) {
		rec := f.do(http.MethodPatch, "/orders/1/state", `{"state":2}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		got := decodeOrder(t, rec)
		if got.State != 2 {
			t.Errorf("expected state 2, got %d", got.State)
		}
		if !got.CreateTime.Equal(before.CreateTime) {
			t.Errorf("create time changed from %v to %v", before.CreateTime, got.CreateTime)
		}
		if !got.UpdateTime.After(before.UpdateTime) {
			t.Errorf("expected update time after %v, got %v", before.UpdateTime, got.UpdateTime)
		}
	})

	t.Run("requires a state", func(t *testing.T) {
		if rec := f.do(http.MethodPatch, "/orders/1/state", `{}`); rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 for an unknown order", func(t *testing.T) {
		if rec := f.do(http.MethodPatch, "/orders/5/state", `{"state":1}`); rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleRemoveItem(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodPost, "/orders", `{"customer":"Li Lei","coffee_ids":[1,2]}`)

	rec := f.do(http.MethodDelete, "/orders/1/items/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	if ids := decodeOrder(t, rec).CoffeeIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Errorf("expected items [2], got %v", ids)
	}

	stored, err := f.orders.FindByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("find order: %v", err)
	}
	if len(stored.Items) != 1 {
		t.Errorf("expected the stored order to keep 1 item, got %d", len(stored.Items))
	}

	if rec := f.do(http.MethodDelete, "/orders/1/items/x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestHandler_HandleDelete(t *testing.T) {
	f := newFixture(t, nil)
	f.do(http.MethodPost, "/orders", `{"customer":"Li Lei","coffee_ids":[1]}`)

	if rec := f.do(http.MethodDelete, "/orders/1", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rec.Code)
	}
	if f.orders.Len() != 0 {
		t.Errorf("expected no orders, got %d", f.orders.Len())
	}
	if f.coffees.Len() != 2 {
		t.Errorf("expected coffees to survive, got %d", f.coffees.Len())
	}

	if rec := f.do(http.MethodDelete, "/orders/1", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}
