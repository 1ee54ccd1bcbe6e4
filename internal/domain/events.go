package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	TopicCoffeeSaved = "coffee.saved"
	TopicOrderSaved  = "order.saved"
)

type CoffeeSavedEvent struct {
	EventID   string    `json:"event_id"`
	CoffeeID  int64     `json:"coffee_id"`
	Name      string    `json:"name"`
	Price     string    `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

type OrderSavedEvent struct {
	EventID   string    `json:"event_id"`
	OrderID   int64     `json:"order_id"`
	Customer  string    `json:"customer"`
	State     int       `json:"state"`
	CoffeeIDs []int64   `json:"coffee_ids"`
	Timestamp time.Time `json:"timestamp"`
}

func NewCoffeeSavedEvent(c Coffee) CoffeeSavedEvent {
	return CoffeeSavedEvent{
		EventID:   uuid.NewString(),
		CoffeeID:  c.ID,
		Name:      c.Name,
		Price:     c.Price.String(),
		Timestamp: c.UpdateTime,
	}
}

func NewOrderSavedEvent(o CoffeeOrder) OrderSavedEvent {
	return OrderSavedEvent{
		EventID:   uuid.NewString(),
		OrderID:   o.ID,
		Customer:  o.Customer,
		State:     o.State,
		CoffeeIDs: o.CoffeeIDs(),
		Timestamp: o.UpdateTime,
	}
}
