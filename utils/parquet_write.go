package utils

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ParquetWriter writes batches of row structs to a Snappy-compressed
// parquet file. One writer per output file.
type ParquetWriter[T any] struct {
	file   *os.File
	writer *parquet.GenericWriter[T]
}

func NewParquetWriter[T any](filename string, options ...parquet.WriterOption) (*ParquetWriter[T], error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	defaultOpts := []parquet.WriterOption{
		parquet.Compression(&parquet.Snappy),
		parquet.WriteBufferSize(50 * 1024 * 1024),
		parquet.PageBufferSize(64 * 1024),
	}
	finalOpts := append(defaultOpts, options...)

	pw := parquet.NewGenericWriter[T](f, finalOpts...)

	return &ParquetWriter[T]{
		file:   f,
		writer: pw,
	}, nil
}

func (p *ParquetWriter[T]) Write(data []T) error {
	_, err := p.writer.Write(data)
	return err
}

// Close flushes the parquet footer before closing the underlying file.
func (p *ParquetWriter[T]) Close() error {
	if err := p.writer.Close(); err != nil {
		p.file.Close()
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	if err := p.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}
