package dataset

import (
	"context"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v17/arrow/csv"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

const rowGroupSize = 64 * 1024

// WriteParquet encodes ds as a Snappy-compressed Parquet file.
// w is not closed.
func WriteParquet(w io.Writer, ds Dataset) error {
	tbl := ds.Table(memory.DefaultAllocator)
	defer tbl.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	// pqarrow closes sinks that implement io.Closer; keep that decision with the caller
	sink := struct{ io.Writer }{w}
	if err := pqarrow.WriteTable(tbl, sink, rowGroupSize, props, pqarrow.DefaultWriterProps()); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	return nil
}

// ReadParquet decodes a Parquet file written by WriteParquet (or any file with
// the same columns).
func ReadParquet(ctx context.Context, r parquet.ReaderAtSeeker) (Dataset, error) {
	mem := memory.DefaultAllocator
	tbl, err := pqarrow.ReadTable(ctx, r, parquet.NewReaderProperties(mem), pqarrow.ArrowReadProperties{}, mem)
	if err != nil {
		return Dataset{}, fmt.Errorf("read parquet: %w", err)
	}
	defer tbl.Release()
	return FromTable(tbl)
}

// WriteCSV encodes ds as comma separated UTF-8 text with a header row.
// Dates are written as YYYY-MM-DD.
func WriteCSV(w io.Writer, ds Dataset) error {
	rec := ds.Record(memory.DefaultAllocator)
	defer rec.Release()

	cw := csv.NewWriter(w, Schema, csv.WithComma(','), csv.WithHeader(true))
	if err := cw.Write(rec); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	if err := cw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV decodes text written by WriteCSV.
func ReadCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r, Schema, csv.WithComma(','), csv.WithHeader(true), csv.WithChunk(1024))
	defer cr.Release()

	var ds Dataset
	for cr.Next() {
		recs, err := appendRecords(ds.Records, cr.Record())
		if err != nil {
			return Dataset{}, err
		}
		ds.Records = recs
	}
	if err := cr.Err(); err != nil {
		return Dataset{}, fmt.Errorf("read csv: %w", err)
	}
	return ds, nil
}
