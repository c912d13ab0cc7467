package dataset

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/innatolkaneva/weather/internal/weather/types"
)

func day(d int) time.Time {
	return time.Date(2026, time.October, d, 0, 0, 0, 0, time.UTC)
}

func sample() Dataset {
	return Dataset{Records: []types.Record{
		{City: "Moscow", Date: day(1), AvgTempC: 5.4},
		{City: "Moscow", Date: day(3), AvgTempC: -1.25},
		{City: "Saint Petersburg", Date: day(1), AvgTempC: 4.1},
		{City: "Saint Petersburg", Date: day(2), AvgTempC: 3.9},
		{City: "Saint Petersburg", Date: day(3), AvgTempC: 0},
	}}
}

func assertSameRecords(t *testing.T, got, want Dataset) {
	t.Helper()
	if got.Len() != want.Len() {
		t.Fatalf("row count = %d, want %d", got.Len(), want.Len())
	}
	for i := range want.Records {
		g, w := got.Records[i], want.Records[i]
		if g.City != w.City || !g.Date.Equal(w.Date) || math.Abs(g.AvgTempC-w.AvgTempC) > 1e-9 {
			t.Errorf("row %d = %+v, want %+v", i, g, w)
		}
	}
}

func TestAssemble_KeepsOrderAndTruncatesDates(t *testing.T) {
	in := []types.Record{
		{City: "B", Date: time.Date(2026, time.October, 2, 18, 45, 0, 0, time.UTC), AvgTempC: 1},
		{City: "A", Date: day(1), AvgTempC: 2},
		{City: "B", Date: day(1), AvgTempC: 3},
	}
	ds := Assemble(in)

	if ds.Len() != len(in) {
		t.Fatalf("Assemble() rows = %d, want %d", ds.Len(), len(in))
	}
	if !ds.Records[0].Date.Equal(day(2)) {
		t.Errorf("Assemble() date = %v, want %v", ds.Records[0].Date, day(2))
	}
	if got := ds.Cities(); len(got) != 2 || got[0] != "B" || got[1] != "A" {
		t.Errorf("Cities() = %v, want [B A]", got)
	}
	if got := ds.CountByCity(); got["B"] != 2 || got["A"] != 1 {
		t.Errorf("CountByCity() = %v", got)
	}
	// input must not be mutated
	if in[0].Date.Hour() != 18 {
		t.Errorf("Assemble() mutated its input")
	}
}

func TestParquet_RoundTrip(t *testing.T) {
	want := sample()

	var buf bytes.Buffer
	if err := WriteParquet(&buf, want); err != nil {
		t.Fatalf("WriteParquet() unexpected error: %v", err)
	}
	got, err := ReadParquet(context.Background(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadParquet() unexpected error: %v", err)
	}
	assertSameRecords(t, got, want)
}

func TestParquet_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, Dataset{}); err != nil {
		t.Fatalf("WriteParquet() unexpected error: %v", err)
	}
	got, err := ReadParquet(context.Background(), bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadParquet() unexpected error: %v", err)
	}
	if got.Len() != 0 {
		t.Errorf("ReadParquet() rows = %d, want 0", got.Len())
	}
}

func TestReadParquet_Garbage(t *testing.T) {
	if _, err := ReadParquet(context.Background(), bytes.NewReader([]byte("not parquet"))); err == nil {
		t.Fatal("ReadParquet() expected error, got nil")
	}
}

func TestWriteCSV_Format(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sample()); err != nil {
		t.Fatalf("WriteCSV() unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("WriteCSV() wrote %d lines, want 6:\n%s", len(lines), buf.String())
	}
	if lines[0] != "city,date,avg_temp" {
		t.Errorf("header = %q, want city,date,avg_temp", lines[0])
	}
	if lines[1] != "Moscow,2026-10-01,5.4" {
		t.Errorf("first row = %q, want Moscow,2026-10-01,5.4", lines[1])
	}
}

func TestCSVAndParquet_SameContent(t *testing.T) {
	ds := sample()

	var csvBuf, pqBuf bytes.Buffer
	if err := WriteCSV(&csvBuf, ds); err != nil {
		t.Fatalf("WriteCSV() unexpected error: %v", err)
	}
	if err := WriteParquet(&pqBuf, ds); err != nil {
		t.Fatalf("WriteParquet() unexpected error: %v", err)
	}

	fromCSV, err := ReadCSV(&csvBuf)
	if err != nil {
		t.Fatalf("ReadCSV() unexpected error: %v", err)
	}
	fromParquet, err := ReadParquet(context.Background(), bytes.NewReader(pqBuf.Bytes()))
	if err != nil {
		t.Fatalf("ReadParquet() unexpected error: %v", err)
	}

	assertSameRecords(t, fromCSV, ds)
	assertSameRecords(t, fromCSV, fromParquet)
}
