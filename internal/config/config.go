// Package config loads settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gluco_watch/internal/logger"
	"gluco_watch/internal/window"

	"github.com/spf13/viper"
)

// DefaultEnvFile is read when present; real environment variables win over it.
const DefaultEnvFile = ".env"

var ErrMissingCredentials = errors.New("EASYVIEW_USERNAME and EASYVIEW_PASSWORD must be set")

type EasyView struct {
	Username   string
	Password   string
	UserType   string
	MonitorUID string
	BaseURL    string
	Timeout    time.Duration
}

type Poll struct {
	TZOffsetHours        int
	WindowHours          int
	LoopInterval         time.Duration
	ErrorRetry           time.Duration
	MaxConsecutiveErrors int
	IncludeRaw           bool
	SinkTimeout          time.Duration
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Influx struct {
	URL, Token, Org, Bucket string
}

type MQTT struct {
	BrokerURL, ClientID, Username, Password string
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type MinIO struct {
	Endpoint, AccessKey, SecretKey, Bucket string
	UseTLS                                 bool
}

type HTTP struct {
	Port            string
	APIUsername     string
	APIPasswordHash string
	APISigningKey   string
}

type Config struct {
	EasyView  EasyView
	Poll      Poll
	LogLevel  string
	LogFormat string
	DBPath    string
	DiagDir   string
	Redis     Redis
	Influx    Influx
	MQTT      MQTT
	Kafka     Kafka
	MinIO     MinIO
	HTTP      HTTP
}

var defaults = map[string]any{
	"EASYVIEW_USER_TYPE":     "P",
	"EASYVIEW_BASE_URL":      "https://easyview.medtrum.eu",
	"TZ_OFFSET_HOURS":        1,
	"WINDOW_HOURS":           24,
	"LOOP_INTERVAL_SECONDS":  120,
	"ERROR_RETRY_SECONDS":    300,
	"MAX_CONSECUTIVE_ERRORS": 5,
	"HTTP_TIMEOUT_SECONDS":   30,
	"SINK_TIMEOUT_SECONDS":   30,
	"INCLUDE_RAW":            true,
	"LOG_LEVEL":              logger.InfoLevel,
	"LOG_FORMAT":             logger.FormatConsole,
	"DB_PATH":                "gluco.db",
	"REDIS_DB":               0,
	"MQTT_CLIENT_ID":         "gluco-watch",
	"KAFKA_TOPIC":            "glucose.readings",
	"MINIO_BUCKET":           "gluco-raw",
}

// Load reads DefaultEnvFile (if any) and the process environment.
func Load() (*Config, error) {
	return LoadFile(DefaultEnvFile)
}

// LoadFile is Load with an explicit dotenv path. A missing file is not an error.
func LoadFile(envFile string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", envFile, err)
			}
		}
	}

	cfg := &Config{
		EasyView: EasyView{
			Username:   v.GetString("EASYVIEW_USERNAME"),
			Password:   v.GetString("EASYVIEW_PASSWORD"),
			UserType:   v.GetString("EASYVIEW_USER_TYPE"),
			MonitorUID: v.GetString("EASYVIEW_MONITOR_UID"),
			BaseURL:    v.GetString("EASYVIEW_BASE_URL"),
			Timeout:    seconds(v, "HTTP_TIMEOUT_SECONDS"),
		},
		Poll: Poll{
			TZOffsetHours:        v.GetInt("TZ_OFFSET_HOURS"),
			WindowHours:          v.GetInt("WINDOW_HOURS"),
			LoopInterval:         seconds(v, "LOOP_INTERVAL_SECONDS"),
			ErrorRetry:           seconds(v, "ERROR_RETRY_SECONDS"),
			MaxConsecutiveErrors: v.GetInt("MAX_CONSECUTIVE_ERRORS"),
			IncludeRaw:           v.GetBool("INCLUDE_RAW"),
			SinkTimeout:          seconds(v, "SINK_TIMEOUT_SECONDS"),
		},
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
		DBPath:    v.GetString("DB_PATH"),
		DiagDir:   v.GetString("DIAG_DIR"),
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Influx: Influx{
			URL:    v.GetString("INFLUX_URL"),
			Token:  v.GetString("INFLUX_TOKEN"),
			Org:    v.GetString("INFLUX_ORG"),
			Bucket: v.GetString("INFLUX_BUCKET"),
		},
		MQTT: MQTT{
			BrokerURL: v.GetString("MQTT_BROKER_URL"),
			ClientID:  v.GetString("MQTT_CLIENT_ID"),
			Username:  v.GetString("MQTT_USERNAME"),
			Password:  v.GetString("MQTT_PASSWORD"),
		},
		Kafka: Kafka{
			Brokers: splitList(v.GetString("KAFKA_BROKERS")),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		MinIO: MinIO{
			Endpoint:  v.GetString("MINIO_ENDPOINT"),
			AccessKey: v.GetString("MINIO_ACCESS_KEY"),
			SecretKey: v.GetString("MINIO_SECRET_KEY"),
			Bucket:    v.GetString("MINIO_BUCKET"),
			UseTLS:    v.GetBool("MINIO_USE_TLS"),
		},
		HTTP: HTTP{
			Port:            v.GetString("HTTP_PORT"),
			APIUsername:     v.GetString("API_USERNAME"),
			APIPasswordHash: v.GetString("API_PASSWORD_HASH"),
			APISigningKey:   v.GetString("API_SIGNING_KEY"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EasyView.Username) == "" || c.EasyView.Password == "" {
		return ErrMissingCredentials
	}
	var problems []string
	if c.Poll.TZOffsetHours < -window.MaxTZOffsetHours || c.Poll.TZOffsetHours > window.MaxTZOffsetHours {
		problems = append(problems, fmt.Sprintf("TZ_OFFSET_HOURS must be within [-%d, %d]", window.MaxTZOffsetHours, window.MaxTZOffsetHours))
	}
	if c.Poll.WindowHours <= 0 || c.Poll.WindowHours > window.MaxWindowHours {
		problems = append(problems, fmt.Sprintf("WINDOW_HOURS must be within [1, %d]", window.MaxWindowHours))
	}
	if c.Poll.LoopInterval <= 0 || c.Poll.ErrorRetry <= 0 {
		problems = append(problems, "LOOP_INTERVAL_SECONDS and ERROR_RETRY_SECONDS must be positive")
	}
	if c.Poll.MaxConsecutiveErrors <= 0 {
		problems = append(problems, "MAX_CONSECUTIVE_ERRORS must be positive")
	}
	if c.EasyView.Timeout <= 0 {
		problems = append(problems, "HTTP_TIMEOUT_SECONDS must be positive")
	}
	if c.Poll.SinkTimeout <= 0 {
		problems = append(problems, "SINK_TIMEOUT_SECONDS must be positive")
	}
	if err := logger.ValidLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if err := logger.ValidFormat(c.LogFormat); err != nil {
		problems = append(problems, err.Error())
	}
	if c.DBPath == "" {
		problems = append(problems, "DB_PATH must not be empty")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func seconds(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Second
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
