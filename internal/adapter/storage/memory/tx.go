package memory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var errNoSQL = errors.New("memory store: SQL is not supported")

// Tx is a unit of work on a Store. Every mutation registers an undo step;
// Rollback replays them newest first.
type Tx struct {
	store *Store
	undo  []func()
	done  bool
}

func (t *Tx) onRollback(fn func()) {
	t.undo = append(t.undo, fn)
}

// Commit makes the unit's effects permanent and releases the store.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.undo = nil
	t.store.release()
	return nil
}

// Rollback reverts every mutation of the unit and releases the store. It is
// a no-op error after Commit, matching pgx.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return pgx.ErrTxClosed
	}
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.done = true
	t.undo = nil
	t.store.release()
	return nil
}

func (t *Tx) Begin(_ context.Context) (pgx.Tx, error) {
	return nil, errors.New("memory store: nested transactions are not supported")
}

func (t *Tx) CopyFrom(_ context.Context, _ pgx.Identifier, _ []string, _ pgx.CopyFromSource) (int64, error) {
	return 0, errNoSQL
}

func (t *Tx) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults { return errBatch{} }

func (t *Tx) LargeObjects() pgx.LargeObjects { return pgx.LargeObjects{} }

func (t *Tx) Prepare(_ context.Context, _, _ string) (*pgconn.StatementDescription, error) {
	return nil, errNoSQL
}

func (t *Tx) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errNoSQL
}

func (t *Tx) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errNoSQL
}

func (t *Tx) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return errRow{}
}

func (t *Tx) Conn() *pgx.Conn { return nil }

type errRow struct{}

func (errRow) Scan(_ ...any) error { return errNoSQL }

type errBatch struct{}

func (errBatch) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, errNoSQL }

func (errBatch) Query() (pgx.Rows, error) { return nil, errNoSQL }

func (errBatch) QueryRow() pgx.Row { return errRow{} }

func (errBatch) Close() error { return errNoSQL }
