package accesslog

import (
	"context"
	"time"

	"github.com/jirevwe/litepool/packer"
)

const (
	// Rfc3339Milli is like time.RFC3339Nano, but with millisecond precision
	Rfc3339Milli = "2006-01-02T15:04:05.000Z07:00"
)

// Store persists one entry per served request.
type Store interface {
	// Record writes an entry
	Record(context.Context, *Entry) error

	// Recent returns the newest entries first
	Recent(context.Context, int) ([]Entry, error)

	// Count returns the number of recorded entries
	Count(context.Context) (int, error)

	Close() error
}

type Entry struct {
	Id         string
	Method     string
	Path       string
	Status     string
	RemoteAddr string
	Bytes      int64
	Elapsed    time.Duration
	Details    []byte
	CreatedAt  string
}

// Details is the msgpack payload kept alongside an entry.
type Details struct {
	RequestLine string `json:"request_line"`
	Route       string `json:"route"`
	File        string `json:"file"`
}

func (d *Details) Marshal() ([]byte, error) {
	return packer.EncodeMessage(d)
}

// DecodeDetails decodes the entry's details payload.
func (e *Entry) DecodeDetails() (Details, error) {
	var d Details
	if len(e.Details) == 0 {
		return d, nil
	}
	err := packer.DecodeMessage(e.Details, &d)
	return d, err
}

func (e *Entry) CreatedTime() time.Time {
	t, err := time.Parse(Rfc3339Milli, e.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Nop discards every entry. It is used when no access log is configured.
type Nop struct{}

func (Nop) Record(context.Context, *Entry) error         { return nil }
func (Nop) Recent(context.Context, int) ([]Entry, error) { return nil, nil }
func (Nop) Count(context.Context) (int, error)           { return 0, nil }
func (Nop) Close() error                                 { return nil }
