package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"kaamsetu"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`

	// empty folder means the migrations embedded in the binary
	MigrationFolder string `envconfig:"DB_MIGRATIONS_FOLDER" default:""`
}

type svcConfig struct {
	Address        string   `envconfig:"KAAMSETU_ADDRESS" default:":3443"`
	MetricsAddress string   `envconfig:"KAAMSETU_METRICS_ADDRESS" default:":8080"`
	LogLevel       string   `envconfig:"KAAMSETU_LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"KAAMSETU_LOG_FORMAT" default:"console"`
	AllowedOrigins []string `envconfig:"KAAMSETU_ALLOWED_ORIGINS" default:"*"`
	PathPrefix     string   `envconfig:"KAAMSETU_PATH_PREFIX" default:""`
	TLSSelfSigned  bool     `envconfig:"KAAMSETU_TLS_SELF_SIGNED" default:"false"`
	Auth           Auth
	Notification   Notification
	Assignment     Assignment
	Subscription   Subscription
	RatingSync     RatingSync
}

type Auth struct {
	AuthenticationType string `envconfig:"KAAMSETU_AUTH" default:"none"`
	LocalSigningKey    string `envconfig:"KAAMSETU_AUTH_SIGNING_KEY" default:""`
}

type Notification struct {
	// empty sink url means events are written to the log
	SinkURL    string        `envconfig:"KAAMSETU_NOTIFICATION_SINK_URL" default:""`
	Topic      string        `envconfig:"KAAMSETU_NOTIFICATION_TOPIC" default:"kaamsetu.events"`
	Timeout    time.Duration `envconfig:"KAAMSETU_NOTIFICATION_TIMEOUT" default:"5s"`
	BufferSize int           `envconfig:"KAAMSETU_NOTIFICATION_BUFFER_SIZE" default:"1000"`
}

type Assignment struct {
	CommitTimeout time.Duration `envconfig:"KAAMSETU_ASSIGNMENT_COMMIT_TIMEOUT" default:"10s"`
	MaxRetries    uint64        `envconfig:"KAAMSETU_ASSIGNMENT_MAX_RETRIES" default:"3"`
	RetryBackoff  time.Duration `envconfig:"KAAMSETU_ASSIGNMENT_RETRY_BACKOFF" default:"50ms"`
}

type Subscription struct {
	PollInterval time.Duration `envconfig:"KAAMSETU_SUBSCRIPTION_POLL_INTERVAL" default:"5s"`
}

type RatingSync struct {
	// empty url means ratings are recorded by the in-process profile service
	URL           string        `envconfig:"KAAMSETU_PROFILE_SYNC_URL" default:""`
	Timeout       time.Duration `envconfig:"KAAMSETU_PROFILE_SYNC_TIMEOUT" default:"5s"`
	RetryInterval time.Duration `envconfig:"KAAMSETU_RATING_SYNC_RETRY_INTERVAL" default:"1m"`
	BatchSize     int           `envconfig:"KAAMSETU_RATING_SYNC_BATCH_SIZE" default:"50"`
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration holding only the default values.
// It ignores the environment.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type:     "pgsql",
			Hostname: "localhost",
			Port:     "5432",
			Name:     "kaamsetu",
			User:     "admin",
			Password: "adminpass",
		},
		Service: &svcConfig{
			Address:        ":3443",
			MetricsAddress: ":8080",
			LogLevel:       "info",
			LogFormat:      "console",
			AllowedOrigins: []string{"*"},
			Auth:           Auth{AuthenticationType: "none"},
			Notification:   Notification{Topic: "kaamsetu.events", Timeout: 5 * time.Second, BufferSize: 1000},
			Assignment: Assignment{
				CommitTimeout: 10 * time.Second,
				MaxRetries:    3,
				RetryBackoff:  50 * time.Millisecond,
			},
			Subscription: Subscription{PollInterval: 5 * time.Second},
			RatingSync: RatingSync{
				Timeout:       5 * time.Second,
				RetryInterval: time.Minute,
				BatchSize:     50,
			},
		},
	}
}

// NewInMemory returns the default configuration backed by a named in-memory sqlite database.
func NewInMemory(name string) *Config {
	cfg := NewDefault()
	cfg.Database.Type = "sqlite"
	cfg.Database.Name = "file:" + name + "?mode=memory&cache=shared"
	return cfg
}
