package domain

import (
	"log/slog"
	"time"
)

// CoffeeOrder references persisted coffees through the t_order_coffee join
// table. Items are value snapshots; the order never owns a Coffee.
type CoffeeOrder struct {
	ID       int64    `json:"id"`
	Items    []Coffee `json:"items"`
	State    int      `json:"state"`
	Customer string   `json:"customer"`

	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
}

// CoffeeIDs lists the referenced coffee ids in item order.
func (o CoffeeOrder) CoffeeIDs() []int64 {
	ids := make([]int64, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ID)
	}
	return ids
}

// WithoutCoffee returns the items with every reference to coffeeID removed.
func (o CoffeeOrder) WithoutCoffee(coffeeID int64) []Coffee {
	items := make([]Coffee, 0, len(o.Items))
	for _, item := range o.Items {
		if item.ID != coffeeID {
			items = append(items, item)
		}
	}
	return items
}

func (o CoffeeOrder) LogValue() slog.Value {
	items := make([]any, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, item.Name)
	}

	return slog.GroupValue(
		slog.Int64("id", o.ID),
		slog.String("customer", o.Customer),
		slog.Int("state", o.State),
		slog.Any("items", items),
		slog.Time("create_time", o.CreateTime),
		slog.Time("update_time", o.UpdateTime),
	)
}
