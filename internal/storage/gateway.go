package storage

import (
	"context"
	"database/sql"
	"iter"
	"time"
)

// Gateway is the CRUD surface every entity repository offers.
type Gateway[E any] interface {
	// Save inserts the entity when its ID is zero and updates it otherwise.
	// The ID and timestamps of *E are populated on success.
	Save(ctx context.Context, ptr *E) error
	FindByID(ctx context.Context, id int64) (E, error)
	// FindAll queries lazily: nothing hits the database until the sequence
	// is ranged over, and every range issues a fresh query.
	FindAll(ctx context.Context) iter.Seq2[E, error]
	DeleteByID(ctx context.Context, id int64) error
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Scanner interface {
	Scan(dest ...any) error
}

// Mapping binds an entity type to its table.
//
// Rows are always read in the order id, Columns()..., create_time,
// update_time, and Args must return one value per entry of Columns.
type Mapping[E any] interface {
	Table() string
	Columns() []string
	ID(ptr *E) int64
	SetID(ptr *E, id int64)
	Timestamps(ptr *E) (createTime, updateTime *time.Time)
	Args(ptr *E) ([]any, error)
	Scan(row Scanner, ptr *E) error
}

// AssociationSaver rewrites the join rows of an entity. It runs inside the
// Save transaction after the entity row is written.
type AssociationSaver[E any] interface {
	SaveAssociations(ctx context.Context, q Querier, ptr *E) error
}

type AssociationLoader[E any] interface {
	LoadAssociations(ctx context.Context, q Querier, ents []*E) error
}

// AssociationDeleter removes join rows owned by the entity before its row
// is deleted.
type AssociationDeleter interface {
	DeleteAssociations(ctx context.Context, q Querier, id int64) error
}
