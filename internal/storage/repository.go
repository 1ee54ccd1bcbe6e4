package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

var meter = otel.Meter("github.com/joao-fontenele/springbucks/internal/storage")

// Repository implements Gateway for any entity described by a Mapping.
// Timestamps are stamped here, right before the row is written.
type Repository[E any] struct {
	db         *sql.DB
	mapping    Mapping[E]
	now        func() time.Time
	operations metric.Int64Counter
}

type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now as the source of create and update times.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func NewRepository[E any](db *sql.DB, mapping Mapping[E], opts ...Option) *Repository[E] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	operations, err := meter.Int64Counter("storage.operations",
		metric.WithDescription("Storage gateway operations by table and outcome"),
	)
	if err != nil {
		operations = noop.Int64Counter{}
	}

	return &Repository[E]{
		db:         db,
		mapping:    mapping,
		now:        o.now,
		operations: operations,
	}
}

// Save leaves *ptr untouched unless the transaction commits.
func (r *Repository[E]) Save(ctx context.Context, ptr *E) (err error) {
	defer func() { r.record(ctx, "save", err) }()

	args, err := r.mapping.Args(ptr)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	_, previous := r.mapping.Timestamps(ptr)
	stamp := nextTimestamp(r.now(), *previous)

	// associations are written from a copy so a rolled back insert never
	// leaves an id on the caller's entity
	work := *ptr
	id := r.mapping.ID(ptr)
	created, updated := stamp, stamp
	if id == 0 {
		err = tx.QueryRowContext(ctx, r.insertQuery(), append(args, stamp)...).Scan(&id)
		if err != nil {
			return classify(err)
		}
		r.mapping.SetID(&work, id)
	} else {
		err = tx.QueryRowContext(ctx, r.updateQuery(), append([]any{id, stamp}, args...)...).Scan(&created, &updated)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s id %d: %w", r.mapping.Table(), id, ErrNotFound)
		}
		if err != nil {
			return classify(err)
		}
	}

	if saver, ok := r.mapping.(AssociationSaver[E]); ok {
		if err := saver.SaveAssociations(ctx, tx, &work); err != nil {
			return classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return classify(err)
	}

	r.mapping.SetID(ptr, id)
	createTime, updateTime := r.mapping.Timestamps(ptr)
	*createTime = created.UTC()
	*updateTime = updated.UTC()
	return nil
}

func (r *Repository[E]) FindByID(ctx context.Context, id int64) (_ E, err error) {
	defer func() { r.record(ctx, "find_by_id", err) }()

	var ent E
	err = r.mapping.Scan(r.db.QueryRowContext(ctx, r.selectQuery()+" WHERE id = $1", id), &ent)
	if errors.Is(err, sql.ErrNoRows) {
		return ent, fmt.Errorf("%s id %d: %w", r.mapping.Table(), id, ErrNotFound)
	}
	if err != nil {
		return ent, classify(err)
	}

	if loader, ok := r.mapping.(AssociationLoader[E]); ok {
		if err := loader.LoadAssociations(ctx, r.db, []*E{&ent}); err != nil {
			return ent, classify(err)
		}
	}

	return ent, nil
}

func (r *Repository[E]) FindAll(ctx context.Context) iter.Seq2[E, error] {
	return func(yield func(E, error) bool) {
		var err error
		defer func() { r.record(ctx, "find_all", err) }()

		if _, ok := r.mapping.(AssociationLoader[E]); ok {
			err = r.findAllLoaded(ctx, yield)
			return
		}

		rows, err := r.db.QueryContext(ctx, r.selectQuery()+" ORDER BY id")
		if err != nil {
			err = classify(err)
			yield(*new(E), err)
			return
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var ent E
			if err = r.mapping.Scan(rows, &ent); err != nil {
				yield(ent, err)
				return
			}
			if !yield(ent, nil) {
				return
			}
		}

		if err = rows.Err(); err != nil {
			yield(*new(E), classify(err))
		}
	}
}

// findAllLoaded reads every row before yielding so that associations can be
// loaded in one batch instead of one query per entity.
func (r *Repository[E]) findAllLoaded(ctx context.Context, yield func(E, error) bool) error {
	fail := func(err error) error {
		yield(*new(E), err)
		return err
	}

	rows, err := r.db.QueryContext(ctx, r.selectQuery()+" ORDER BY id")
	if err != nil {
		return fail(classify(err))
	}
	defer func() { _ = rows.Close() }()

	var ents []*E
	for rows.Next() {
		ent := new(E)
		if err := r.mapping.Scan(rows, ent); err != nil {
			return fail(err)
		}
		ents = append(ents, ent)
	}
	if err := rows.Err(); err != nil {
		return fail(classify(err))
	}
	_ = rows.Close()

	if len(ents) > 0 {
		loader := r.mapping.(AssociationLoader[E])
		if err := loader.LoadAssociations(ctx, r.db, ents); err != nil {
			return fail(classify(err))
		}
	}

	for _, ent := range ents {
		if !yield(*ent, nil) {
			return nil
		}
	}
	return nil
}

func (r *Repository[E]) DeleteByID(ctx context.Context, id int64) (err error) {
	defer func() { r.record(ctx, "delete_by_id", err) }()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}
	defer func() { _ = tx.Rollback() }()

	if deleter, ok := r.mapping.(AssociationDeleter); ok {
		if err := deleter.DeleteAssociations(ctx, tx, id); err != nil {
			return classify(err)
		}
	}

	result, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.mapping.Table()), id)
	if err != nil {
		return classify(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if affected == 0 {
		return fmt.Errorf("%s id %d: %w", r.mapping.Table(), id, ErrNotFound)
	}

	return classify(tx.Commit())
}

func (r *Repository[E]) record(ctx context.Context, operation string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrConstraintViolation):
		outcome = "constraint_violation"
	default:
		outcome = "error"
	}

	r.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("table", r.mapping.Table()),
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	))
}

func (r *Repository[E]) selectQuery() string {
	columns := append([]string{"id"}, r.mapping.Columns()...)
	columns = append(columns, "create_time", "update_time")
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), r.mapping.Table())
}

// insertQuery binds Columns() to $1..$n and both timestamps to $n+1.
func (r *Repository[E]) insertQuery() string {
	columns := r.mapping.Columns()
	placeholders := make([]string, 0, len(columns)+2)
	for i := range columns {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
	}
	stamp := fmt.Sprintf("$%d", len(columns)+1)
	placeholders = append(placeholders, stamp, stamp)

	return fmt.Sprintf("INSERT INTO %s (%s, create_time, update_time) VALUES (%s) RETURNING id",
		r.mapping.Table(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)
}

// updateQuery binds the id to $1, update_time to $2 and Columns() from $3.
// create_time is never written after insert. update_time only moves
// forward, even when the caller saves a stale copy.
func (r *Repository[E]) updateQuery() string {
	columns := r.mapping.Columns()
	sets := make([]string, 0, len(columns)+1)
	for i, column := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, i+3))
	}
	sets = append(sets, "update_time = GREATEST(update_time + interval '1 microsecond', $2)")

	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 RETURNING create_time, update_time",
		r.mapping.Table(),
		strings.Join(sets, ", "),
	)
}

// nextTimestamp truncates to the column precision and keeps update times
// strictly increasing even when the clock has not moved.
func nextTimestamp(now, previous time.Time) time.Time {
	now = now.UTC().Truncate(time.Microsecond)
	if !previous.IsZero() && !now.After(previous) {
		return previous.UTC().Truncate(time.Microsecond).Add(time.Microsecond)
	}
	return now
}
