package domain

import (
	"log/slog"
	"time"

	"github.com/joao-fontenele/springbucks/internal/money"
)

// Coffee is a menu entry. ID and both timestamps are owned by storage.
type Coffee struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Price      money.Money `json:"price"`
	CreateTime time.Time   `json:"create_time"`
	UpdateTime time.Time   `json:"update_time"`
}

func (c Coffee) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("id", c.ID),
		slog.String("name", c.Name),
		slog.String("price", c.Price.String()),
		slog.Time("create_time", c.CreateTime),
		slog.Time("update_time", c.UpdateTime),
	)
}
