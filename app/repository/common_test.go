package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

// recordingDB is a database/sql connector that counts transactions and
// reports a fixed number of affected rows for every statement.
type recordingDB struct {
	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
	execs     int
	affected  int64
}

func (d *recordingDB) Connect(context.Context) (driver.Conn, error) {
	return &recordingConn{db: d}, nil
}

func (d *recordingDB) Driver() driver.Driver {
	return recordingDriver{db: d}
}

func (d *recordingDB) counts() (begins, commits, rollbacks int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.begins, d.commits, d.rollbacks
}

type recordingDriver struct {
	db *recordingDB
}

func (d recordingDriver) Open(string) (driver.Conn, error) {
	return d.db.Connect(context.Background())
}

type recordingConn struct {
	db *recordingDB
}

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return &recordingStmt{db: c.db}, nil
}

func (c *recordingConn) Close() error { return nil }

func (c *recordingConn) Begin() (driver.Tx, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	c.db.begins++
	return &recordingTx{db: c.db}, nil
}

type recordingTx struct {
	db *recordingDB
}

func (t *recordingTx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.commits++
	return nil
}

func (t *recordingTx) Rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.rollbacks++
	return nil
}

type recordingStmt struct {
	db *recordingDB
}

func (s *recordingStmt) Close() error  { return nil }
func (s *recordingStmt) NumInput() int { return -1 }

func (s *recordingStmt) Exec([]driver.Value) (driver.Result, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.execs++
	return driver.RowsAffected(s.db.affected), nil
}

func (s *recordingStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("queries are not supported")
}

func openRecordingDB(t *testing.T, affected int64) (*sql.DB, *recordingDB) {
	t.Helper()
	rec := &recordingDB{affected: affected}
	db := sql.OpenDB(rec)
	t.Cleanup(func() { _ = db.Close() })
	return db, rec
}

func testCharge() *entity.Charge {
	return &entity.Charge{
		ID:        7,
		Status:    status.ChargeCaptureApproved,
		Version:   3,
		UpdatedAt: time.Now().UTC(),
	}
}

func TestWithinTransactionCommitsAndJoinsNestedCalls(t *testing.T) {
	db, rec := openRecordingDB(t, 1)
	tx := NewTxManager(db)
	charges := NewChargeRepository(db)

	err := tx.WithinTransaction(context.Background(), func(outer context.Context) error {
		return tx.WithinTransaction(outer, func(inner context.Context) error {
			if conn(inner, db) != conn(outer, db) {
				t.Fatalf("expected nested call to share the outer transaction")
			}
			if _, ok := conn(inner, db).(*sql.Tx); !ok {
				t.Fatalf("expected repositories to use the transaction")
			}
			return charges.Update(inner, testCharge())
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	begins, commits, rollbacks := rec.counts()
	if begins != 1 || commits != 1 || rollbacks != 0 {
		t.Fatalf("expected one committed transaction, got begins=%d commits=%d rollbacks=%d", begins, commits, rollbacks)
	}
	if rec.execs != 1 {
		t.Fatalf("expected one statement, got %d", rec.execs)
	}
}

func TestAfterCommitRunsOnlyAfterOuterCommit(t *testing.T) {
	db, rec := openRecordingDB(t, 1)
	tx := NewTxManager(db)

	ran := 0
	err := tx.WithinTransaction(context.Background(), func(outer context.Context) error {
		if err := tx.WithinTransaction(outer, func(inner context.Context) error {
			tx.AfterCommit(inner, func() { ran++ })
			return nil
		}); err != nil {
			return err
		}
		if ran != 0 {
			t.Fatalf("hook ran before the outer transaction committed")
		}
		if _, commits, _ := rec.counts(); commits != 0 {
			t.Fatalf("nested call committed early")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ran != 1 {
		t.Fatalf("expected hook to run once after commit, ran %d times", ran)
	}
}

func TestWithinTransactionRollsBackWithoutHooks(t *testing.T) {
	db, rec := openRecordingDB(t, 1)
	tx := NewTxManager(db)
	errBoom := errors.New("boom")

	ran := false
	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		tx.AfterCommit(ctx, func() { ran = true })
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran {
		t.Fatalf("hook ran for a rolled back transaction")
	}
	if begins, commits, rollbacks := rec.counts(); begins != 1 || commits != 0 || rollbacks != 1 {
		t.Fatalf("expected a rollback, got begins=%d commits=%d rollbacks=%d", begins, commits, rollbacks)
	}
}

func TestAfterCommitOutsideTransactionRunsImmediately(t *testing.T) {
	db, _ := openRecordingDB(t, 1)
	tx := NewTxManager(db)

	ran := false
	tx.AfterCommit(context.Background(), func() { ran = true })
	if !ran {
		t.Fatalf("expected hook to run immediately")
	}
}

func TestUpdateDetectsConcurrentModification(t *testing.T) {
	db, _ := openRecordingDB(t, 0)
	charge := testCharge()

	err := NewChargeRepository(db).Update(context.Background(), charge)
	if !errors.Is(err, ErrOptimisticLock) {
		t.Fatalf("expected ErrOptimisticLock, got %v", err)
	}
	if charge.Version != 3 {
		t.Fatalf("expected version untouched, got %d", charge.Version)
	}

	db, _ = openRecordingDB(t, 1)
	if err := NewChargeRepository(db).Update(context.Background(), charge); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if charge.Version != 4 {
		t.Fatalf("expected version bump, got %d", charge.Version)
	}
}
