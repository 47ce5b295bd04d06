package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitchenops/inventory-ledger/pkg/logging"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "backoffice", cfg.MongoDB.Database)
	assert.Equal(t, 10*time.Second, cfg.MongoDB.ConnectTimeout)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Outbox.Enabled)
	assert.False(t, cfg.Tracing.Enabled)
	assert.True(t, cfg.Idempotency.Enabled)

	ic := cfg.IdempotencyConfig(nil)
	assert.Equal(t, 5*time.Minute, ic.LockTimeout)
	assert.Equal(t, 24*time.Hour, ic.RetentionPeriod)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("LEDGER_MONGODB_URI", "mongodb://mongo-0:27017/?replicaSet=rs0")
	t.Setenv("LEDGER_MONGODB_CONNECT_TIMEOUT", "3s")
	t.Setenv("LEDGER_KAFKA_BROKERS", "kafka-0:9092,kafka-1:9092")
	t.Setenv("LEDGER_APP_LOG_LEVEL", "debug")
	t.Setenv("LEDGER_OUTBOX_ENABLED", "false")
	t.Setenv("LEDGER_MONGODB_USERNAME", "ledger")
	t.Setenv("LEDGER_MONGODB_PASSWORD", "secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mongodb://mongo-0:27017/?replicaSet=rs0", cfg.MongoConfig().URI)
	assert.Equal(t, 3*time.Second, cfg.MongoConfig().ConnectTimeout)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.KafkaConfig().Brokers)
	assert.Equal(t, logging.LevelDebug, cfg.LoggingConfig().Level)
	assert.False(t, cfg.Outbox.Enabled)
	assert.Equal(t, "ledger", cfg.MongoConfig().Username)
	assert.Equal(t, "admin", cfg.MongoConfig().AuthDB)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.yaml")
	content := `
server:
  addr: ":9090"
mongodb:
  database: bistro
tracing:
  enabled: true
  endpoint: otel-collector:4317
  sample_rate: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "bistro", cfg.MongoDB.Database)

	tc := cfg.TracingConfig()
	assert.True(t, tc.Enabled)
	assert.Equal(t, "otel-collector:4317", tc.OTLPEndpoint)
	assert.Equal(t, 0.25, tc.SampleRate)
	assert.Equal(t, ServiceName, tc.ServiceName)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("LEDGER_TRACING_SAMPLE_RATE", "2")
	_, err = Load("")
	assert.ErrorContains(t, err, "sample_rate")

	t.Setenv("LEDGER_TRACING_SAMPLE_RATE", "1")
	t.Setenv("LEDGER_IDEMPOTENCY_RETENTION", "1m")
	_, err = Load("")
	assert.ErrorContains(t, err, "idempotency.retention")
}
