package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/innatolkaneva/weather/internal/config"
	"github.com/innatolkaneva/weather/internal/weather/types"
)

// Client queries the WeatherAPI.com history.json endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient returns a new Client, or an error if the API key is not set.
// A nil httpClient means http.DefaultClient.
func NewClient(cfg *config.Config, httpClient *http.Client) (*Client, error) {
	if cfg.WeatherAPIComKey == "" {
		return nil, config.ErrMissingAPIKey
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{apiKey: cfg.WeatherAPIComKey, baseURL: cfg.HistoryURL, http: httpClient}, nil
}

type historyResponse struct {
	Forecast struct {
		ForecastDay []struct {
			Date string `json:"date"`
			Day  struct {
				AvgTempC float64 `json:"avgtemp_c"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// FetchDay implements weather.Fetcher.
// It returns the average temperature (°C) of city on the given day.
func (c *Client) FetchDay(ctx context.Context, city string, day time.Time) (types.Record, error) {
	values := url.Values{}
	values.Set("key", c.apiKey)
	values.Set("q", city)
	values.Set("dt", day.Format(types.DateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+values.Encode(), nil)
	if err != nil {
		return types.Record{}, fmt.Errorf("weatherapi: failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return types.Record{}, fmt.Errorf("weatherapi: HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return types.Record{}, fmt.Errorf(
			"weatherapi: unexpected status %d %s",
			resp.StatusCode, http.StatusText(resp.StatusCode),
		)
	}

	var body historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.Record{}, fmt.Errorf("weatherapi: JSON decode error: %w", err)
	}
	if len(body.Forecast.ForecastDay) == 0 {
		return types.Record{}, fmt.Errorf("weatherapi: no forecastday in response")
	}

	fd := body.Forecast.ForecastDay[0]
	date, err := time.Parse(types.DateLayout, fd.Date)
	if err != nil {
		return types.Record{}, fmt.Errorf("weatherapi: bad forecastday date %q: %w", fd.Date, err)
	}

	return types.Record{
		City:     city,
		Date:     date,
		AvgTempC: fd.Day.AvgTempC,
	}, nil
}
