// Package source reads chat exports into raw records.
//
// Both readers address fields by column position: the timestamp, nickname
// and body columns are configured indices into each row. Rows too short
// to contain every configured column are skipped and counted.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/abelbrown/moyu/internal/record"
)

var (
	// ErrNoInput is returned when the source path is missing or unreadable.
	ErrNoInput = errors.New("input source not found")
	// ErrEmptyInput is returned when the source yields no rows at all,
	// not even a header.
	ErrEmptyInput = errors.New("input source is empty")
)

// Format identifies the export format.
type Format string

const (
	FormatCSV    Format = "csv"
	FormatSQLite Format = "sqlite"
)

// Columns are zero-based field positions within a row.
type Columns struct {
	Timestamp int
	Identity  int
	Body      int
}

// DefaultColumns matches the common WeChat message-table export:
// CreateTime, StrContent and NickName.
var DefaultColumns = Columns{Timestamp: 5, Identity: 10, Body: 7}

// Max returns the largest configured index.
func (c Columns) Max() int {
	return max(c.Timestamp, c.Identity, c.Body)
}

// Validate rejects negative indices.
func (c Columns) Validate() error {
	if c.Timestamp < 0 || c.Identity < 0 || c.Body < 0 {
		return fmt.Errorf("column indices must be non-negative: %+v", c)
	}
	return nil
}

// Stats describes one read.
type Stats struct {
	Rows      int  // rows seen, header included
	Header    bool // a header row was discarded
	Malformed int  // rows skipped for having too few columns or bad quoting
}

// Options configures Open.
type Options struct {
	Path      string
	Format    Format // inferred from the extension when empty
	Columns   Columns
	HasHeader bool   // CSV only: discard the first row unconditionally
	Delimiter rune   // CSV only: defaults to ','
	Table     string // SQLite only: defaults to "MSG"
}

// DetectFormat guesses a Format from a file name.
func DetectFormat(path string) Format {
	lower := strings.ToLower(path)
	for _, ext := range []string{".db", ".sqlite", ".sqlite3"} {
		if strings.HasSuffix(lower, ext) {
			return FormatSQLite
		}
	}
	return FormatCSV
}

// Reader yields records from a source.
type Reader interface {
	// Each calls fn for every well-formed row in source order.
	Each(ctx context.Context, fn func(record.Raw) error) (Stats, error)
	Close() error
}

// Load opens opts, buffers every well-formed row and closes the source.
func Load(ctx context.Context, opts Options) ([]record.Raw, Stats, error) {
	r, err := Open(opts)
	if err != nil {
		return nil, Stats{}, err
	}
	defer r.Close()
	return ReadAll(ctx, r)
}

// ReadAll buffers every well-formed row of r.
func ReadAll(ctx context.Context, r Reader) ([]record.Raw, Stats, error) {
	var recs []record.Raw
	stats, err := r.Each(ctx, func(rec record.Raw) error {
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}
	return recs, stats, nil
}

// Open returns a Reader for opts.
func Open(opts Options) (Reader, error) {
	if err := opts.Columns.Validate(); err != nil {
		return nil, err
	}
	format := opts.Format
	if format == "" {
		format = DetectFormat(opts.Path)
	}
	switch format {
	case FormatCSV:
		return openCSV(opts)
	case FormatSQLite:
		return openSQLite(opts)
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// pick extracts the configured fields from a row, or reports that the
// row is too short.
func pick(cols Columns, fields []string) (ts, id, body string, ok bool) {
	if len(fields) <= cols.Max() {
		return "", "", "", false
	}
	return fields[cols.Timestamp], fields[cols.Identity], fields[cols.Body], true
}
