// Package chart turns a dataset into plottable series and renders them.
package chart

import (
	"math"
	"time"

	"github.com/innatolkaneva/weather/internal/dataset"
)

// HistogramBins is the number of temperature bins in the distribution chart.
const HistogramBins = 15

type Point struct {
	Date     time.Time `json:"date"`
	AvgTempC float64   `json:"avg_temp"`
}

// Series is the temperature line of one city.
type Series struct {
	City   string  `json:"city"`
	Points []Point `json:"points"`
}

type Bin struct {
	Lo    float64 `json:"lo"`
	Hi    float64 `json:"hi"`
	Count int     `json:"count"`
}

// CityHistogram is the temperature distribution of one city.
type CityHistogram struct {
	City string `json:"city"`
	Bins []Bin  `json:"bins"`
}

// LineSeries returns one series per city, in the given order, with points in
// dataset order. A city without records gets an empty series.
func LineSeries(ds dataset.Dataset, cities []string) []Series {
	out := make([]Series, 0, len(cities))
	for _, city := range cities {
		s := Series{City: city}
		for _, r := range ds.ByCity(city) {
			s.Points = append(s.Points, Point{Date: r.Date, AvgTempC: r.AvgTempC})
		}
		out = append(out, s)
	}
	return out
}

// Histogram buckets each city's temperatures into n equal-width bins spanning
// the minimum and maximum over all the given cities, so the bars of different
// cities line up. The last bin is closed on both ends.
func Histogram(ds dataset.Dataset, cities []string, n int) []CityHistogram {
	if n <= 0 {
		n = HistogramBins
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, city := range cities {
		for _, r := range ds.ByCity(city) {
			lo = math.Min(lo, r.AvgTempC)
			hi = math.Max(hi, r.AvgTempC)
		}
	}
	if math.IsInf(lo, 1) {
		lo, hi = 0, 1
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)

	out := make([]CityHistogram, 0, len(cities))
	for _, city := range cities {
		bins := make([]Bin, n)
		for i := range bins {
			bins[i].Lo = lo + float64(i)*width
			bins[i].Hi = lo + float64(i+1)*width
		}
		bins[n-1].Hi = hi

		for _, r := range ds.ByCity(city) {
			i := int((r.AvgTempC - lo) / width)
			if i >= n {
				i = n - 1
			}
			bins[i].Count++
		}
		out = append(out, CityHistogram{City: city, Bins: bins})
	}
	return out
}
