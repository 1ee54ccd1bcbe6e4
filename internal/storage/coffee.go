package storage

import (
	"database/sql"
	"time"

	"github.com/joao-fontenele/springbucks/internal/domain"
	"github.com/joao-fontenele/springbucks/internal/money"
)

// CoffeeMapping stores coffees in t_menu; price goes through the money codec.
type CoffeeMapping struct {
	Codec money.Codec
}

func NewCoffeeRepository(db *sql.DB, codec money.Codec, opts ...Option) *Repository[domain.Coffee] {
	return NewRepository[domain.Coffee](db, CoffeeMapping{Codec: codec}, opts...)
}

func (CoffeeMapping) Table() string { return "t_menu" }

func (CoffeeMapping) Columns() []string { return []string{"name", "price"} }

func (CoffeeMapping) ID(c *domain.Coffee) int64 { return c.ID }

func (CoffeeMapping) SetID(c *domain.Coffee, id int64) { c.ID = id }

func (CoffeeMapping) Timestamps(c *domain.Coffee) (*time.Time, *time.Time) {
	return &c.CreateTime, &c.UpdateTime
}

func (m CoffeeMapping) Args(c *domain.Coffee) ([]any, error) {
	price, err := m.Codec.Encode(c.Price)
	if err != nil {
		return nil, err
	}
	return []any{c.Name, price}, nil
}

func (m CoffeeMapping) Scan(row Scanner, c *domain.Coffee) error {
	var (
		name  sql.NullString
		price any
	)
	if err := row.Scan(&c.ID, &name, &price, &c.CreateTime, &c.UpdateTime); err != nil {
		return err
	}

	decoded, err := m.Codec.Decode(price)
	if err != nil {
		return err
	}

	c.Name = name.String
	c.Price = decoded
	return nil
}
