package parquetio

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// Writer streams rows of type T into a new Parquet file.
type Writer[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
	rows   int64
	closed bool
}

// Create truncates or creates path and returns a Writer for it.
func Create[T any](path string) (*Writer[T], error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create parquet file: %w", err)
	}
	return &Writer[T]{file: f, writer: parquet.NewGenericWriter[T](f)}, nil
}

func (w *Writer[T]) Write(rows []T) error {
	n, err := w.writer.Write(rows)
	w.rows += int64(n)
	if err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return nil
}

// Rows reports how many rows have been written.
func (w *Writer[T]) Rows() int64 { return w.rows }

// Close flushes the footer and closes the file. Later calls are no-ops.
func (w *Writer[T]) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.writer.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.file.Close()
}

// WriteAll writes rows to a new file at path.
func WriteAll[T any](path string, rows []T) error {
	w, err := Create[T](path)
	if err != nil {
		return err
	}
	if err := w.Write(rows); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
