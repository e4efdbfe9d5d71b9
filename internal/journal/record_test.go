package journal

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/postbot/internal/fanout"
	"github.com/m3rciful/postbot/internal/post"
)

// recordingDB is an in-memory database/sql driver that keeps every statement it executes.
type recordingDB struct {
	mu        sync.Mutex
	queries   []string
	args      [][]driver.Value
	commits   int
	rollbacks int
	execErr   error
}

func (d *recordingDB) Connect(context.Context) (driver.Conn, error) { return &recordingConn{db: d}, nil }
func (d *recordingDB) Driver() driver.Driver                       { return d }
func (d *recordingDB) Open(string) (driver.Conn, error)            { return &recordingConn{db: d}, nil }

type recordingConn struct{ db *recordingDB }

func (c *recordingConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}
func (c *recordingConn) Close() error              { return nil }
func (c *recordingConn) Begin() (driver.Tx, error) { return recordingTx{db: c.db}, nil }

func (c *recordingConn) ExecContext(_ context.Context, query string, named []driver.NamedValue) (driver.Result, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()
	if c.db.execErr != nil {
		return nil, c.db.execErr
	}
	args := make([]driver.Value, len(named))
	for i, nv := range named {
		args[i] = nv.Value
	}
	c.db.queries = append(c.db.queries, query)
	c.db.args = append(c.db.args, args)
	return driver.RowsAffected(1), nil
}

type recordingTx struct{ db *recordingDB }

func (t recordingTx) Commit() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.commits++
	return nil
}

func (t recordingTx) Rollback() error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	t.db.rollbacks++
	return nil
}

func openRecording(t *testing.T, rec *recordingDB) *Postgres {
	t.Helper()
	db := sqlx.NewDb(sql.OpenDB(rec), "postgres")
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db)
}

func sampleReport() fanout.Report {
	return fanout.Report{
		UserID:     7,
		Submission: post.Submission{Title: "Dune"},
		Category:   post.CategoryHD,
		StartedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Deliveries: []fanout.Delivery{
			{Destination: "7", Kind: fanout.KindSelf},
			{Destination: "-1002034649098", Kind: fanout.KindRoute, Err: errors.New("chat not found")},
		},
	}
}

func TestRecordBatchInsertCommits(t *testing.T) {
	rec := &recordingDB{}
	if err := openRecording(t, rec).Record(context.Background(), sampleReport()); err != nil {
		t.Fatalf("record: %v", err)
	}

	if len(rec.queries) != 1 {
		t.Fatalf("executed %d statements, want one batch insert", len(rec.queries))
	}
	q := rec.queries[0]
	if !strings.HasPrefix(q, "INSERT INTO deliveries") || !strings.Contains(q, "$16") || strings.Contains(q, "$17") {
		t.Fatalf("unexpected query:\n%s", q)
	}
	if strings.Contains(q, ":user_id") {
		t.Fatalf("named parameters left unbound:\n%s", q)
	}

	args := rec.args[0]
	if len(args) != 16 {
		t.Fatalf("args = %d, want 16", len(args))
	}
	if args[0] != int64(7) || args[1] != "Dune" || args[2] != "HD" || args[3] != "7" || args[4] != "self" {
		t.Fatalf("first row args = %v", args[:8])
	}
	if args[5] != true || args[6] != nil {
		t.Fatalf("first row ok/error = %v, %v", args[5], args[6])
	}
	if args[13] != false || args[14] != "chat not found" {
		t.Fatalf("second row ok/error = %v, %v", args[13], args[14])
	}
	if rec.commits != 1 || rec.rollbacks != 0 {
		t.Fatalf("commits=%d rollbacks=%d", rec.commits, rec.rollbacks)
	}
}

func TestRecordRollsBackOnInsertError(t *testing.T) {
	boom := errors.New("relation \"deliveries\" does not exist")
	rec := &recordingDB{execErr: boom}

	err := openRecording(t, rec).Record(context.Background(), sampleReport())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped insert error", err)
	}
	if !strings.HasPrefix(err.Error(), "journal: insert deliveries:") {
		t.Fatalf("err = %q", err)
	}
	if rec.commits != 0 || rec.rollbacks != 1 {
		t.Fatalf("commits=%d rollbacks=%d", rec.commits, rec.rollbacks)
	}
}
