package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abelbrown/moyu/internal/record"
)

const utf8BOM = "\ufeff"

type csvReader struct {
	f    *os.File
	opts Options
}

func openCSV(opts Options) (Reader, error) {
	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoInput, err)
	}
	return &csvReader{f: f, opts: opts}, nil
}

// NewCSV reads CSV rows from r. Used by tests and stdin input.
func NewCSV(r io.Reader, opts Options) Reader {
	return &streamCSV{r: r, opts: opts}
}

func (c *csvReader) Each(ctx context.Context, fn func(record.Raw) error) (Stats, error) {
	return eachCSV(ctx, c.f, c.opts, fn)
}

func (c *csvReader) Close() error {
	return c.f.Close()
}

type streamCSV struct {
	r    io.Reader
	opts Options
}

func (s *streamCSV) Each(ctx context.Context, fn func(record.Raw) error) (Stats, error) {
	return eachCSV(ctx, s.r, s.opts, fn)
}

func (s *streamCSV) Close() error { return nil }

func eachCSV(ctx context.Context, r io.Reader, opts Options, fn func(record.Raw) error) (Stats, error) {
	var stats Stats

	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	for {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		stats.Rows++
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				stats.Malformed++
				continue
			}
			return stats, fmt.Errorf("read row %d: %w", stats.Rows, err)
		}

		if stats.Rows == 1 {
			if len(fields) > 0 {
				fields[0] = strings.TrimPrefix(fields[0], utf8BOM)
			}
			if opts.HasHeader {
				stats.Header = true
				continue
			}
		}

		if stats.Rows%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
		}

		ts, id, body, ok := pick(opts.Columns, fields)
		if !ok {
			stats.Malformed++
			continue
		}
		if err := fn(record.Raw{Row: stats.Rows, Timestamp: ts, Identity: id, Body: body}); err != nil {
			return stats, err
		}
	}

	if stats.Rows == 0 {
		return stats, ErrEmptyInput
	}
	return stats, nil
}
