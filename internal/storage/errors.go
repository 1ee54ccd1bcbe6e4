package storage

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/lib/pq"
)

var (
	ErrNotFound            = errors.New("entity not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrConnection          = errors.New("database unreachable")
)

// classify maps driver failures onto the storage error taxonomy. Errors it
// does not recognise are returned untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code.Class() == "23":
			return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
		case pqErr.Code.Class() == "08", pqErr.Code == "57P01":
			return fmt.Errorf("%w: %w", ErrConnection, err)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	return err
}
