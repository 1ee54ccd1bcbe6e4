package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/money"
)

// OrderMapping stores orders in t_order and their items in t_order_coffee.
// Join rows belong to the order: they are replaced on every save and
// removed with the order. Coffees themselves are never written from here.
type OrderMapping struct {
	Coffees CoffeeMapping
}

func NewOrderRepository(db *sql.DB, codec money.Codec, opts ...Option) *Repository[domain.CoffeeOrder] {
	return NewRepository[domain.CoffeeOrder](db, OrderMapping{Coffees: CoffeeMapping{Codec: codec}}, opts...)
}

func (OrderMapping) Table() string { return "t_order" }

func (OrderMapping) Columns() []string { return []string{"state", "customer"} }

func (OrderMapping) ID(o *domain.CoffeeOrder) int64 { return o.ID }

func (OrderMapping) SetID(o *domain.CoffeeOrder, id int64) { o.ID = id }

func (OrderMapping) Timestamps(o *domain.CoffeeOrder) (*time.Time, *time.Time) {
	return &o.CreateTime, &o.UpdateTime
}

func (OrderMapping) Args(o *domain.CoffeeOrder) ([]any, error) {
	return []any{o.State, o.Customer}, nil
}

func (OrderMapping) Scan(row Scanner, o *domain.CoffeeOrder) error {
	var customer sql.NullString
	if err := row.Scan(&o.ID, &o.State, &customer, &o.CreateTime, &o.UpdateTime); err != nil {
		return err
	}
	o.Customer = customer.String
	return nil
}

func (OrderMapping) SaveAssociations(ctx context.Context, q Querier, o *domain.CoffeeOrder) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM t_order_coffee WHERE coffee_order_id = $1`, o.ID); err != nil {
		return err
	}

	for _, item := range o.Items {
		if item.ID == 0 {
			return fmt.Errorf("%w: order %d references unsaved coffee %q", ErrConstraintViolation, o.ID, item.Name)
		}

		_, err := q.ExecContext(ctx, `
			INSERT INTO t_order_coffee (coffee_order_id, items_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, o.ID, item.ID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (m OrderMapping) LoadAssociations(ctx context.Context, q Querier, orders []*domain.CoffeeOrder) error {
	byID := make(map[int64]*domain.CoffeeOrder, len(orders))
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		o.Items = []domain.Coffee{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := q.QueryContext(ctx, `
		SELECT oc.coffee_order_id, c.id, c.name, c.price, c.create_time, c.update_time
		FROM t_order_coffee oc
		JOIN t_menu c ON c.id = oc.items_id
		WHERE oc.coffee_order_id = ANY($1)
		ORDER BY oc.coffee_order_id, c.id
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			orderID int64
			coffee  domain.Coffee
		)
		if err := m.Coffees.Scan(prefixScanner{row: rows, prefix: []any{&orderID}}, &coffee); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, coffee)
		}
	}

	return rows.Err()
}

func (OrderMapping) DeleteAssociations(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM t_order_coffee WHERE coffee_order_id = $1`, id)
	return err
}

// prefixScanner lets a Mapping scan a row that carries extra leading columns.
type prefixScanner struct {
	row    Scanner
	prefix []any
}

func (s prefixScanner) Scan(dest ...any) error {
	return s.row.Scan(append(append([]any{}, s.prefix...), dest...)...)
}
