// Package seed inserts the demo menu and orders on startup.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/text/currency"

	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/messaging"
	"github.com/joao-fontenele/springbucks/internal/money"
	"github.com/joao-fontenele/springbucks/internal/storage"
)

type Seeder struct {
	coffees   storage.Gateway[domain.Coffee]
	orders    storage.Gateway[domain.CoffeeOrder]
	publisher messaging.Publisher
	unit      currency.Unit
	logger    *slog.Logger
}

// NewSeeder wires a seeder. publisher may be nil, in which case no events
// are sent.
func NewSeeder(coffees storage.Gateway[domain.Coffee], orders storage.Gateway[domain.CoffeeOrder], publisher messaging.Publisher, unit currency.Unit, logger *slog.Logger) *Seeder {
	return &Seeder{
		coffees:   coffees,
		orders:    orders,
		publisher: publisher,
		unit:      unit,
		logger:    logger,
	}
}

type Result struct {
	Coffees []domain.Coffee
	Orders  []domain.CoffeeOrder
}

// Run saves espresso and latte, then one order with espresso and one with
// both. The first failure aborts the run.
func (s *Seeder) Run(ctx context.Context) (*Result, error) {
	espresso := domain.Coffee{Name: "espresso", Price: money.Of(s.unit, 100.0)}
	if err := s.saveCoffee(ctx, &espresso); err != nil {
		return nil, err
	}

	latte := domain.Coffee{Name: "latte", Price: money.Of(s.unit, 150.0)}
	if err := s.saveCoffee(ctx, &latte); err != nil {
		return nil, err
	}

	single := domain.CoffeeOrder{
		Customer: "Li Lei",
		Items:    []domain.Coffee{espresso},
		State:    0,
	}
	if err := s.saveOrder(ctx, &single); err != nil {
		return nil, err
	}

	double := domain.CoffeeOrder{
		Customer: "Li Lei",
		Items:    []domain.Coffee{espresso, latte},
		State:    0,
	}
	if err := s.saveOrder(ctx, &double); err != nil {
		return nil, err
	}

	return &Result{
		Coffees: []domain.Coffee{espresso, latte},
		Orders:  []domain.CoffeeOrder{single, double},
	}, nil
}

// Report logs every stored coffee and order.
func (s *Seeder) Report(ctx context.Context) error {
	for c, err := range s.coffees.FindAll(ctx) {
		if err != nil {
			return fmt.Errorf("load coffees: %w", err)
		}
		s.logger.Info("Loading", "coffee", c)
	}

	for o, err := range s.orders.FindAll(ctx) {
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		s.logger.Info("Loading", "order", o)
	}

	return nil
}

func (s *Seeder) saveCoffee(ctx context.Context, c *domain.Coffee) error {
	if err := s.coffees.Save(ctx, c); err != nil {
		return fmt.Errorf("save coffee %q: %w", c.Name, err)
	}
	s.logger.Info("Coffee", "coffee", *c)

	s.publish(ctx, domain.TopicCoffeeSaved, c.ID, domain.NewCoffeeSavedEvent(*c))
	return nil
}

func (s *Seeder) saveOrder(ctx context.Context, o *domain.CoffeeOrder) error {
	if err := s.orders.Save(ctx, o); err != nil {
		return fmt.Errorf("save order for %q: %w", o.Customer, err)
	}
	s.logger.Info("Order", "order", *o)

	s.publish(ctx, domain.TopicOrderSaved, o.ID, domain.NewOrderSavedEvent(*o))
	return nil
}

// publish failures are logged only; the stored row is authoritative.
func (s *Seeder) publish(ctx context.Context, topic string, id int64, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, strconv.FormatInt(id, 10), event); err != nil {
		s.logger.Error("failed to publish event", "error", err, "topic", topic, "id", id)
	}
}
