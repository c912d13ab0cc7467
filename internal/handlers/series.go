package handlers

import (
	"context"
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/innatolkaneva/weather/internal/chart"
	"github.com/innatolkaneva/weather/internal/dataset"
)

// DatasetSource loads the dataset the chart endpoints are computed from.
type DatasetSource func(ctx context.Context) (dataset.Dataset, error)

// ParquetFile reads the dataset from a local Parquet copy on every call.
func ParquetFile(path string) DatasetSource {
	return func(ctx context.Context) (dataset.Dataset, error) {
		f, err := os.Open(path)
		if err != nil {
			return dataset.Dataset{}, err
		}
		defer f.Close()
		return dataset.ReadParquet(ctx, f)
	}
}

type seriesRequest struct {
	City string `form:"city"`
}

type histogramRequest struct {
	City string `form:"city"`
	Bins int    `form:"bins" binding:"omitempty,min=1,max=100"`
}

// SeriesHandler returns a Gin handler for GET /api/series
func SeriesHandler(src DatasetSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req seriesRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ds, ok := load(c, src)
		if !ok {
			return
		}
		cities, ok := selectCities(c, ds, req.City)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"series": chart.LineSeries(ds, cities)})
	}
}

// HistogramHandler returns a Gin handler for GET /api/histogram
func HistogramHandler(src DatasetSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req histogramRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Bins == 0 {
			req.Bins = chart.HistogramBins
		}

		ds, ok := load(c, src)
		if !ok {
			return
		}
		cities, ok := selectCities(c, ds, req.City)
		if !ok {
			return
		}

		c.JSON(http.StatusOK, gin.H{"histograms": chart.Histogram(ds, cities, req.Bins)})
	}
}

func load(c *gin.Context, src DatasetSource) (dataset.Dataset, bool) {
	ds, err := src(c.Request.Context())
	if errors.Is(err, os.ErrNotExist) {
		// 404 No run has produced a local copy yet
		c.JSON(http.StatusNotFound, gin.H{"error": "no dataset available yet"})
		return ds, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load dataset"})
		return ds, false
	}
	return ds, true
}

func selectCities(c *gin.Context, ds dataset.Dataset, city string) ([]string, bool) {
	if city == "" {
		return ds.Cities(), true
	}
	if len(ds.ByCity(city)) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no data for city " + city})
		return nil, false
	}
	return []string{city}, true
}
