package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/innatolkaneva/weather/internal/weather/types"
)

// WindowDays is how far back the history window reaches from today.
const WindowDays = 30

// ErrMissingAPIKey is returned by the history client when no WeatherAPI.com
// key is configured.
var ErrMissingAPIKey = errors.New("WEATHERAPI_COM_API_KEY is required")

var validate = validator.New()

// Config holds all the environment‐driven settings for the pipeline.
type Config struct {
	// WeatherAPI.com history endpoint. The key is checked by the history
	// client, so the read API starts without it.
	WeatherAPIComKey string
	HistoryURL       string        `validate:"required,url"`
	Cities           []string      `validate:"required,min=1,dive,required"`
	RequestDelay     time.Duration `validate:"gte=0"`

	// Remote filesystem
	RemoteFS       string `validate:"oneof=hdfs local"`
	HDFSHost       string `validate:"required"`
	HDFSPort       int    `validate:"gt=0,lte=65535"`
	HDFSUser       string `validate:"required"`
	RemotePath     string `validate:"required"`
	RemoteLocalDir string

	// Local outputs
	LocalCSVPath     string `validate:"required"`
	LocalParquetPath string `validate:"required"`
	LineChartPath    string
	HistogramPath    string

	// Run ledger (optional)
	DatabaseURL string

	// Redis history cache (optional)
	RedisAddr     string
	RedisPassword string

	// Run report (optional; enabled when SMTPHost and ReportTo are set)
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string
	ReportTo []string

	// Scheduler and read API
	Schedule string
	Port     string
}

// Load reads an optional .env file, then the environment, applying defaults
// where appropriate. It returns an error if a required variable is missing or
// malformed.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("INFO: error loading .env file: %v", err)
	}

	apiKey := os.Getenv("WEATHERAPI_COM_API_KEY")
	if apiKey == "" {
		// older deployments only exported "key"
		apiKey = os.Getenv("key")
	}
	delay, err := time.ParseDuration(getenvDefault("REQUEST_DELAY", "1s"))
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_DELAY: %w", err)
	}

	hdfsPortStr := getenvDefault("HDFS_PORT", "8020")
	hdfsPort, err := strconv.Atoi(hdfsPortStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HDFS_PORT %q: %w", hdfsPortStr, err)
	}

	smtpPort := 0
	if v := os.Getenv("SMTP_PORT"); v != "" {
		smtpPort, err = strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", v, err)
		}
	}
	smtpUser := os.Getenv("SMTP_USER")
	smtpFrom := os.Getenv("SMTP_FROM")
	if smtpFrom == "" {
		// default to the authenticated user
		smtpFrom = smtpUser
	}

	cfg := &Config{
		WeatherAPIComKey: apiKey,
		HistoryURL:       getenvDefault("WEATHER_HISTORY_URL", "http://api.weatherapi.com/v1/history.json"),
		Cities:           splitList(getenvDefault("CITIES", "Moscow,Saint Petersburg,Belgorod")),
		RequestDelay:     delay,

		RemoteFS:       getenvDefault("REMOTE_FS", "hdfs"),
		HDFSHost:       getenvDefault("HDFS_HOST", "localhost"),
		HDFSPort:       hdfsPort,
		HDFSUser:       getenvDefault("HDFS_USER", "inna"),
		RemotePath:     getenvDefault("HDFS_PATH", "/user/inna/weather_data.parquet"),
		RemoteLocalDir: getenvDefault("REMOTE_LOCAL_DIR", "remote"),

		LocalCSVPath:     getenvDefault("LOCAL_CSV_PATH", "weather_data.csv"),
		LocalParquetPath: getenvDefault("LOCAL_PARQUET_PATH", "weather_data.parquet"),
		LineChartPath:    getenvDefault("LINE_CHART_PATH", "temperature_line.png"),
		HistogramPath:    getenvDefault("HISTOGRAM_PATH", "temperature_hist.png"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SMTPHost: os.Getenv("SMTP_HOST"),
		SMTPPort: smtpPort,
		SMTPUser: smtpUser,
		SMTPPass: os.Getenv("SMTP_PASS"),
		SMTPFrom: smtpFrom,
		ReportTo: splitList(os.Getenv("REPORT_TO")),

		Schedule: getenvDefault("SCHEDULE", "0 6 * * *"),
		Port:     getenvDefault("PORT", "8080"),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// HDFSAddr is the namenode address in host:port form.
func (c *Config) HDFSAddr() string {
	return fmt.Sprintf("%s:%d", c.HDFSHost, c.HDFSPort)
}

// ReportEnabled reports whether run summaries should be mailed.
func (c *Config) ReportEnabled() bool {
	return c.SMTPHost != "" && c.SMTPPort != 0 && len(c.ReportTo) > 0
}

// Window returns the history window ending on the calendar day of now and
// starting WindowDays before it, both inclusive.
func (c *Config) Window(now time.Time) types.Window {
	return types.WindowEndingAt(now, WindowDays)
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
