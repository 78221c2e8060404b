package sqlite

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jirevwe/litepool/accesslog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func newTestSqlite(t *testing.T) *Sqlite {
	t.Helper()

	s, err := NewSqlite(filepath.Join(t.TempDir(), "access.db"), slogger)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	return s
}

func TestSqlite_RecordOne(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)

	details, err := (&accesslog.Details{RequestLine: "GET / HTTP/1.1", Route: "static", File: "static/index.html"}).Marshal()
	require.NoError(t, err)

	entry := &accesslog.Entry{
		Method:     "GET",
		Path:       "/index.html",
		Status:     "200 OK",
		RemoteAddr: "127.0.0.1:5555",
		Bytes:      42,
		Elapsed:    3 * time.Millisecond,
		Details:    details,
	}
	require.NoError(t, s.Record(ctx, entry))
	require.NotEmpty(t, entry.Id)

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	require.Equal(t, entry.Id, got.Id)
	require.Equal(t, "GET", got.Method)
	require.Equal(t, "/index.html", got.Path)
	require.Equal(t, "200 OK", got.Status)
	require.Equal(t, int64(42), got.Bytes)
	require.Equal(t, 3*time.Millisecond, got.Elapsed)
	require.False(t, got.CreatedTime().IsZero())

	d, err := got.DecodeDetails()
	require.NoError(t, err)
	require.Equal(t, "static/index.html", d.File)
}

func TestSqlite_RecordConcurrently(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)
	wg := &sync.WaitGroup{}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Record(ctx, &accesslog.Entry{Method: "GET", Path: fmt.Sprintf("/%d.html", i), Status: "404 NOT FOUND"})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 10, n)
}

func TestSqlite_RecentIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestSqlite(t)

	for _, path := range []string{"/a", "/b", "/c"} {
		require.NoError(t, s.Record(ctx, &accesslog.Entry{Method: "GET", Path: path, Status: "200 OK"}))
		// ulids only sort by time across milliseconds
		time.Sleep(2 * time.Millisecond)
	}

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "/c", entries[0].Path)
	require.Equal(t, "/b", entries[1].Path)
}

func TestSqlite_DuplicateIdRollsBack(t *testing.T) {
	ctx := context.Background()

	logs := &bytes.Buffer{}
	s, err := NewSqlite(filepath.Join(t.TempDir(), "access.db"), slog.New(slog.NewTextHandler(logs, nil)))
	require.NoError(t, err)
	defer s.Close()

	entry := &accesslog.Entry{Id: "01HZZZZZZZZZZZZZZZZZZZZZZZ", Method: "GET", Path: "/", Status: "200 OK"}
	require.NoError(t, s.Record(ctx, entry))
	require.Error(t, s.Record(ctx, entry))
	require.Contains(t, logs.String(), "action=rollback")
	require.Contains(t, logs.String(), "UNIQUE constraint failed")

	n, err := s.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestNewSqlite_NilLogger(t *testing.T) {
	s, err := NewSqlite(filepath.Join(t.TempDir(), "access.db"), nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(context.Background(), &accesslog.Entry{Method: "GET", Path: "/", Status: "200 OK"}))
}
