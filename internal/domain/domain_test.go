package domain

import (
	"slices"
	"testing"
	"time"

	"golang.org/x/text/currency"

	"github.com/joao-fontenele/springbucks/internal/money"
)

func TestCoffeeOrder_Items(t *testing.T) {
	order := CoffeeOrder{Items: []Coffee{{ID: 1}, {ID: 2}, {ID: 1}}}

	if got := order.CoffeeIDs(); !slices.Equal(got, []int64{1, 2, 1}) {
		t.Errorf("expected [1 2 1], got %v", got)
	}

	t.Run("without coffee drops every reference", func(t *testing.T) {
		got := CoffeeOrder{Items: order.WithoutCoffee(1)}.CoffeeIDs()
		if !slices.Equal(got, []int64{2}) {
			t.Errorf("expected [2], got %v", got)
		}
		if len(order.Items) != 3 {
			t.Errorf("expected the original items untouched, got %d", len(order.Items))
		}
	})

	t.Run("without an absent coffee keeps everything", func(t *testing.T) {
		if got := order.WithoutCoffee(9); len(got) != 3 {
			t.Errorf("expected 3 items, got %d", len(got))
		}
	})
}

func TestNewEvents(t *testing.T) {
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	latte := Coffee{ID: 2, Name: "latte", Price: money.Of(currency.TWD, 150), UpdateTime: at}

	coffeeEvent := NewCoffeeSavedEvent(latte)
	if coffeeEvent.EventID == "" {
		t.Error("expected an event id")
	}
	if coffeeEvent.Price != "TWD 150.00" || !coffeeEvent.Timestamp.Equal(at) {
		t.Errorf("unexpected coffee event: %+v", coffeeEvent)
	}

	orderEvent := NewOrderSavedEvent(CoffeeOrder{ID: 7, Customer: "Li Lei", State: 1, Items: []Coffee{latte}, UpdateTime: at})
	if orderEvent.EventID == coffeeEvent.EventID {
		t.Error("expected distinct event ids")
	}
	if orderEvent.OrderID != 7 || orderEvent.State != 1 || !slices.Equal(orderEvent.CoffeeIDs, []int64{2}) {
		t.Errorf("unexpected order event: %+v", orderEvent)
	}
}
