package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jirevwe/litepool/accesslog"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

var createAccessLog = `CREATE TABLE IF NOT EXISTS access_log (
			id TEXT NOT NULL PRIMARY KEY,
			method TEXT NOT NULL,
			path TEXT NOT NULL,
			status TEXT NOT NULL,
			remote_addr TEXT NOT NULL default '',
			bytes INTEGER NOT NULL default 0,
			elapsed_ns INTEGER NOT NULL default 0,
			details BLOB,
			created_at TEXT not null default (strftime('%Y-%m-%dT%H:%M:%fZ'))
		) strict;`

type row struct {
	Id         string `db:"id"`
	Method     string `db:"method"`
	Path       string `db:"path"`
	Status     string `db:"status"`
	RemoteAddr string `db:"remote_addr"`
	Bytes      int64  `db:"bytes"`
	ElapsedNs  int64  `db:"elapsed_ns"`
	Details    []byte `db:"details"`
	CreatedAt  string `db:"created_at"`
}

func (r *row) entry() accesslog.Entry {
	return accesslog.Entry{
		Id:         r.Id,
		Method:     r.Method,
		Path:       r.Path,
		Status:     r.Status,
		RemoteAddr: r.RemoteAddr,
		Bytes:      r.Bytes,
		Elapsed:    time.Duration(r.ElapsedNs),
		Details:    r.Details,
		CreatedAt:  r.CreatedAt,
	}
}

type Sqlite struct {
	logger *slog.Logger
	db     *sqlx.DB
}

var _ accesslog.Store = (*Sqlite)(nil)

// NewSqlite opens (or creates) the access log at dbPath. Failed writes are
// logged to logger, slog.Default() when nil.
func NewSqlite(dbPath string, logger *slog.Logger) (*Sqlite, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sqlx.Open("sqlite3", fmt.Sprintf("%s?mode=rwc&_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", dbPath))
	if err != nil {
		return nil, err
	}

	// one writer at a time, requests are recorded from every worker
	db.SetMaxOpenConns(1)

	_, err = db.Exec("PRAGMA journal_size_limit = 67108864;")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	_, err = db.Exec("PRAGMA cache_size = 2000;")
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Sqlite{db: db, logger: logger}

	ctx := context.Background()
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err = tx.ExecContext(ctx, createAccessLog)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Record inserts an entry, assigning it an id if it has none
func (s *Sqlite) Record(ctx context.Context, entry *accesslog.Entry) error {
	if len(entry.Id) == 0 {
		entry.Id = ulid.Make().String()
	}

	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		writeQuery := `insert into access_log (id, method, path, status, remote_addr, bytes, elapsed_ns, details) values ($1, $2, $3, $4, $5, $6, $7, $8)`
		_, innerErr := tx.ExecContext(ctx, writeQuery, entry.Id, entry.Method, entry.Path, entry.Status, entry.RemoteAddr, entry.Bytes, int64(entry.Elapsed), entry.Details)
		if innerErr != nil {
			return innerErr
		}
		return nil
	})
}

// Recent returns up to limit entries, newest first. Ids are ULIDs so they
// sort by creation time.
func (s *Sqlite) Recent(ctx context.Context, limit int) (entries []accesslog.Entry, err error) {
	getRecent := `select * from access_log order by id desc limit $1;`

	rows, err := s.db.QueryxContext(ctx, getRecent, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r row
		if rowScanErr := rows.StructScan(&r); rowScanErr != nil {
			return nil, rowScanErr
		}
		entries = append(entries, r.entry())
	}

	return entries, rows.Err()
}

func (s *Sqlite) Count(ctx context.Context) (n int, err error) {
	err = s.db.GetContext(ctx, &n, `select count(*) from access_log;`)
	return n, err
}

func (s *Sqlite) Close() error {
	return s.db.Close()
}

func (s *Sqlite) inTx(ctx context.Context, cb func(*sqlx.Tx) error) (err error) {
	tx, beginErr := s.db.BeginTxx(ctx, nil)
	if beginErr != nil {
		return fmt.Errorf("cannot start tx: %w", beginErr)
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error(fmt.Sprintf("rolling back after panic: %v", rec), "source", "sqlite")
			err = rollback(tx, nil)
			panic(rec)
		}
	}()

	if err = cb(tx); err != nil {
		s.logger.Error(err.Error(), "source", "sqlite", "action", "rollback")
		return rollback(tx, err)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("cannot commit tx: %w", commitErr)
	}

	return nil
}

func rollback(tx *sqlx.Tx, err error) error {
	if rollbackErr := tx.Rollback(); rollbackErr != nil {
		return fmt.Errorf("cannot roll back tx after error (tx error: %v), original error: %w", rollbackErr, err)
	}
	return err
}
