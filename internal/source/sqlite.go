package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/moyu/internal/record"
)

// DefaultTable is the message table of a decrypted WeChat database.
const DefaultTable = "MSG"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type sqliteReader struct {
	db    *sql.DB
	table string
	cols  Columns
}

// openSQLite opens a database read-only. The file must already exist.
func openSQLite(opts Options) (Reader, error) {
	if _, err := os.Stat(opts.Path); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoInput, err)
	}
	table := opts.Table
	if table == "" {
		table = DefaultTable
	}
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open("sqlite", "file:"+opts.Path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &sqliteReader{db: db, table: table, cols: opts.Columns}, nil
}

func (s *sqliteReader) Each(ctx context.Context, fn func(record.Raw) error) (Stats, error) {
	var stats Stats

	rows, err := s.db.QueryContext(ctx, `SELECT * FROM "`+s.table+`"`)
	if err != nil {
		return stats, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return stats, fmt.Errorf("columns: %w", err)
	}
	vals := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	fields := make([]string, len(names))

	for rows.Next() {
		stats.Rows++
		if err := rows.Scan(ptrs...); err != nil {
			return stats, fmt.Errorf("scan row %d: %w", stats.Rows, err)
		}
		for i, v := range vals {
			fields[i] = text(v)
		}
		ts, id, body, ok := pick(s.cols, fields)
		if !ok {
			stats.Malformed++
			continue
		}
		if err := fn(record.Raw{Row: stats.Rows, Timestamp: ts, Identity: id, Body: body}); err != nil {
			return stats, err
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("iterate rows: %w", err)
	}
	if stats.Rows == 0 {
		return stats, ErrEmptyInput
	}
	return stats, nil
}

func (s *sqliteReader) Close() error {
	return s.db.Close()
}

// text renders a column value the way it would appear in a CSV export.
func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return strconv.FormatInt(x.Unix(), 10)
	default:
		return fmt.Sprint(x)
	}
}
