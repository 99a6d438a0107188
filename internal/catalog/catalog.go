// Package catalog reads product catalog files for bulk import.
//
// A catalog file is gzipped JSON lines: one product object per line, blank
// lines ignored. Files are read from S3 when configured, with the local
// catalog directory as fallback.
package catalog

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"agrolinq/internal/model"
)

// ErrNotFound is returned when a catalog file does not exist.
var ErrNotFound = errors.New("catalog file not found")

// Record is one product read from a catalog file.
type Record struct {
	Line int
	model.ProductInput
}

// ParseError reports a malformed line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader reads a catalog file by name.
type Loader interface {
	Load(ctx context.Context, name string) ([]Record, error)
}

const maxLineBytes = 1024 * 1024

// Decode reads a gzipped JSON-lines stream.
func Decode(ctx context.Context, r io.Reader) ([]Record, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()

		var input model.ProductInput
		if err := dec.Decode(&input); err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		if dec.More() {
			return nil, &ParseError{Line: line, Err: errors.New("more than one object on line")}
		}

		records = append(records, Record{Line: line, ProductInput: input})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading catalog: %w", err)
	}

	return records, nil
}
