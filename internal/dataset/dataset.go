// Package dataset holds the assembled weather table and its columnar
// encodings.
package dataset

import (
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/innatolkaneva/weather/internal/weather/types"
)

// Schema is the column layout shared by every encoding: city, date, avg_temp.
var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "city", Type: arrow.BinaryTypes.String},
	{Name: "date", Type: arrow.FixedWidthTypes.Date32},
	{Name: "avg_temp", Type: arrow.PrimitiveTypes.Float64},
}, nil)

// Dataset is an ordered list of records, in the order they were fetched.
type Dataset struct {
	Records []types.Record
}

// Assemble builds a Dataset from fetched records, keeping their order and
// reducing every date to its calendar day.
func Assemble(records []types.Record) Dataset {
	out := make([]types.Record, len(records))
	for i, r := range records {
		r.Date = types.Day(r.Date)
		out[i] = r
	}
	return Dataset{Records: out}
}

func (d Dataset) Len() int { return len(d.Records) }

// Cities returns the distinct city labels in order of first appearance.
func (d Dataset) Cities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Records {
		if !seen[r.City] {
			seen[r.City] = true
			out = append(out, r.City)
		}
	}
	return out
}

// ByCity returns the records of one city, in dataset order.
func (d Dataset) ByCity(city string) []types.Record {
	var out []types.Record
	for _, r := range d.Records {
		if r.City == city {
			out = append(out, r)
		}
	}
	return out
}

// CountByCity returns the number of records per city.
func (d Dataset) CountByCity() map[string]int {
	out := make(map[string]int)
	for _, r := range d.Records {
		out[r.City]++
	}
	return out
}

// Record converts the dataset into a single Arrow record batch.
// The caller owns the result and must Release it.
func (d Dataset) Record(mem memory.Allocator) arrow.Record {
	b := array.NewRecordBuilder(mem, Schema)
	defer b.Release()

	city := b.Field(0).(*array.StringBuilder)
	date := b.Field(1).(*array.Date32Builder)
	temp := b.Field(2).(*array.Float64Builder)

	for _, r := range d.Records {
		city.Append(r.City)
		date.Append(arrow.Date32FromTime(r.Date))
		temp.Append(r.AvgTempC)
	}
	return b.NewRecord()
}

// Table wraps Record in an Arrow table. The caller must Release it.
func (d Dataset) Table(mem memory.Allocator) arrow.Table {
	rec := d.Record(mem)
	defer rec.Release()
	return array.NewTableFromRecords(Schema, []arrow.Record{rec})
}

// FromTable reads a table with the city/date/avg_temp columns back into a
// Dataset. Columns are matched by name; extra columns are ignored.
func FromTable(tbl arrow.Table) (Dataset, error) {
	tr := array.NewTableReader(tbl, 1024)
	defer tr.Release()

	var ds Dataset
	for tr.Next() {
		recs, err := appendRecords(ds.Records, tr.Record())
		if err != nil {
			return Dataset{}, err
		}
		ds.Records = recs
	}
	if err := tr.Err(); err != nil {
		return Dataset{}, fmt.Errorf("read table: %w", err)
	}
	return ds, nil
}

func appendRecords(dst []types.Record, rec arrow.Record) ([]types.Record, error) {
	cityCol, err := column(rec, "city")
	if err != nil {
		return nil, err
	}
	dateCol, err := column(rec, "date")
	if err != nil {
		return nil, err
	}
	tempCol, err := column(rec, "avg_temp")
	if err != nil {
		return nil, err
	}

	cities, ok := cityCol.(*array.String)
	if !ok {
		return nil, fmt.Errorf("column city: unexpected type %s", cityCol.DataType())
	}
	dates, ok := dateCol.(*array.Date32)
	if !ok {
		return nil, fmt.Errorf("column date: unexpected type %s", dateCol.DataType())
	}
	temps, ok := tempCol.(*array.Float64)
	if !ok {
		return nil, fmt.Errorf("column avg_temp: unexpected type %s", tempCol.DataType())
	}

	for i := 0; i < int(rec.NumRows()); i++ {
		dst = append(dst, types.Record{
			City:     cities.Value(i),
			Date:     dates.Value(i).ToTime(),
			AvgTempC: temps.Value(i),
		})
	}
	return dst, nil
}

func column(rec arrow.Record, name string) (arrow.Array, error) {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, fmt.Errorf("missing column %q", name)
	}
	return rec.Column(idx[0]), nil
}
