package catalog

import (
	"database/sql"
	"errors"

	"github.com/Simplici0/pricebook/internal/db"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrPaymentMethodInactive is returned when a calculation names a deactivated payment method.
var ErrPaymentMethodInactive = errors.New("payment method is inactive")

// Store persists products, their pricing results, settings and payment methods.
type Store struct {
	db     *sql.DB
	driver string
}

// NewStore returns a Store over an open database for the given driver name.
func NewStore(database *sql.DB, driver string) *Store {
	return &Store{db: database, driver: driver}
}

func (s *Store) rebind(query string) string {
	return db.Rebind(s.driver, query)
}
