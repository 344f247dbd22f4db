package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/explorer/internal/explorer/store"
)

// errNestedTx is returned when code running inside WithTx asks for another
// transaction. sqlite has a single writer, so nesting would deadlock.
var errNestedTx = errors.New("sqlite: nested transactions are not supported")

// txStore exposes the repositories bound to one *sql.Tx. It satisfies
// store.Tx; lifecycle methods that only make sense on the pool are inert.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Users() store.Users           { return &usersRepo{db: t.tx} }
func (t *txStore) Categories() store.Categories { return &categoriesRepo{db: t.tx} }
func (t *txStore) Apps() store.Apps             { return &appsRepo{db: t.tx} }
func (t *txStore) Reviews() store.Reviews       { return &reviewsRepo{db: t.tx} }
func (t *txStore) Media() store.Media           { return &mediaRepo{db: t.tx} }

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

func (t *txStore) Ping(context.Context) error { return nil }
func (t *txStore) Close() error               { return nil }
func (t *txStore) ApplyMigrations() error     { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, errNestedTx }

func (t *txStore) WithTx(context.Context, func(store.Tx) error) error { return errNestedTx }
