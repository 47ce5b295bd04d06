package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kitchenops/inventory-ledger/pkg/idempotency"
	"github.com/kitchenops/inventory-ledger/pkg/kafka"
	"github.com/kitchenops/inventory-ledger/pkg/logging"
	"github.com/kitchenops/inventory-ledger/pkg/mongodb"
	"github.com/kitchenops/inventory-ledger/pkg/outbox"
	"github.com/kitchenops/inventory-ledger/pkg/tracing"
)

const ServiceName = "inventory-ledger"

// Config holds the service configuration. Every key can be overridden through the
// environment with the LEDGER_ prefix, e.g. LEDGER_MONGODB_URI.
type Config struct {
	App struct {
		Environment string
		Version     string
		LogLevel    string `mapstructure:"log_level"`
	} `mapstructure:"app"`

	Server struct {
		Addr            string
		ReadTimeout     time.Duration `mapstructure:"read_timeout"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	} `mapstructure:"server"`

	MongoDB struct {
		URI            string
		Database       string
		ReplicaSet     string        `mapstructure:"replica_set"`
		Username       string
		Password       string
		AuthDB         string        `mapstructure:"auth_db"`
		ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
		MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
		MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	} `mapstructure:"mongodb"`

	Kafka struct {
		Brokers      []string
		ClientID     string        `mapstructure:"client_id"`
		RequiredAcks int           `mapstructure:"required_acks"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
	} `mapstructure:"kafka"`

	Outbox struct {
		Enabled      bool
		PollInterval time.Duration `mapstructure:"poll_interval"`
		BatchSize    int           `mapstructure:"batch_size"`
	} `mapstructure:"outbox"`

	Idempotency struct {
		Enabled     bool
		LockTimeout time.Duration `mapstructure:"lock_timeout"`
		Retention   time.Duration
	} `mapstructure:"idempotency"`

	Tracing struct {
		Enabled    bool
		Endpoint   string
		SampleRate float64 `mapstructure:"sample_rate"`
	} `mapstructure:"tracing"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("mongodb.database", "backoffice")
	v.SetDefault("mongodb.replica_set", "")
	v.SetDefault("mongodb.username", "")
	v.SetDefault("mongodb.password", "")
	v.SetDefault("mongodb.auth_db", "admin")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)
	v.SetDefault("mongodb.max_pool_size", 100)
	v.SetDefault("mongodb.min_pool_size", 10)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", ServiceName)
	v.SetDefault("kafka.required_acks", -1)
	v.SetDefault("kafka.write_timeout", 10*time.Second)

	v.SetDefault("outbox.enabled", true)
	v.SetDefault("outbox.poll_interval", time.Second)
	v.SetDefault("outbox.batch_size", 100)

	v.SetDefault("idempotency.enabled", true)
	v.SetDefault("idempotency.lock_timeout", 5*time.Minute)
	v.SetDefault("idempotency.retention", 24*time.Hour)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.endpoint", "localhost:4317")
	v.SetDefault("tracing.sample_rate", 1.0)
}

// Load reads the configuration. path is optional; without it only defaults and
// environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch {
	case c.MongoDB.URI == "":
		return fmt.Errorf("mongodb.uri is required")
	case c.MongoDB.Database == "":
		return fmt.Errorf("mongodb.database is required")
	case c.Outbox.Enabled && len(c.Kafka.Brokers) == 0:
		return fmt.Errorf("kafka.brokers is required when the outbox publisher is enabled")
	case c.Idempotency.Enabled && (c.Idempotency.LockTimeout <= 0 || c.Idempotency.Retention < c.Idempotency.LockTimeout):
		return fmt.Errorf("idempotency.retention must be at least idempotency.lock_timeout, which must be positive")
	case c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1:
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
	}
	return nil
}

func (c *Config) LoggingConfig() *logging.Config {
	cfg := logging.DefaultConfig(ServiceName)
	cfg.Level = logging.ParseLevel(c.App.LogLevel)
	cfg.Environment = c.App.Environment
	cfg.Version = c.App.Version
	return cfg
}

func (c *Config) MongoConfig() *mongodb.Config {
	return &mongodb.Config{
		URI:            c.MongoDB.URI,
		Database:       c.MongoDB.Database,
		ReplicaSet:     c.MongoDB.ReplicaSet,
		Username:       c.MongoDB.Username,
		Password:       c.MongoDB.Password,
		AuthDB:         c.MongoDB.AuthDB,
		ConnectTimeout: c.MongoDB.ConnectTimeout,
		MaxPoolSize:    c.MongoDB.MaxPoolSize,
		MinPoolSize:    c.MongoDB.MinPoolSize,
	}
}

func (c *Config) KafkaConfig() *kafka.Config {
	cfg := kafka.DefaultConfig()
	cfg.Brokers = c.Kafka.Brokers
	cfg.ClientID = c.Kafka.ClientID
	cfg.RequiredAcks = c.Kafka.RequiredAcks
	cfg.WriteTimeout = c.Kafka.WriteTimeout
	return cfg
}

func (c *Config) PublisherConfig() *outbox.PublisherConfig {
	return &outbox.PublisherConfig{
		PollInterval: c.Outbox.PollInterval,
		BatchSize:    c.Outbox.BatchSize,
	}
}

func (c *Config) IdempotencyConfig(repository idempotency.Repository) *idempotency.Config {
	cfg := idempotency.DefaultConfig(repository)
	cfg.LockTimeout = c.Idempotency.LockTimeout
	cfg.RetentionPeriod = c.Idempotency.Retention
	return cfg
}

func (c *Config) TracingConfig() *tracing.Config {
	cfg := tracing.DefaultConfig(ServiceName)
	cfg.ServiceVersion = c.App.Version
	cfg.Environment = c.App.Environment
	cfg.OTLPEndpoint = c.Tracing.Endpoint
	cfg.SampleRate = c.Tracing.SampleRate
	cfg.Enabled = c.Tracing.Enabled
	return cfg
}
