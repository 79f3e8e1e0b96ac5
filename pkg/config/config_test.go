package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, 3, cfg.Workflow.ConflictRetries)
	assert.Equal(t, []string{"log"}, cfg.Events.Drivers)
	assert.True(t, cfg.Events.Enabled("log"))
	assert.False(t, cfg.Events.Enabled("kafka"))
	assert.Equal(t, "utf-8", cfg.Catalog.Encoding)
	assert.Empty(t, cfg.Tracing.Endpoint)
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "p@ss:word")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("EVENTS_DRIVERS", "log, kafka ,")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("WORKFLOW_CONFLICT_RETRIES", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.DB.AutoMigrate)
	assert.Equal(t, []string{"log", "kafka"}, cfg.Events.Drivers)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Workflow.ConflictRetries)
	assert.Equal(t, "postgres://postgres:p%40ss%3Aword@db:5432/obrador?sslmode=disable", cfg.DB.ConnectionString())
}

func TestLoad_DatabaseURLTienePrioridad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://u:p@host:5432/x?sslmode=require")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgresql://u:p@host:5432/x?sslmode=require", cfg.DB.ConnectionString())
}

func TestLoad_Errores(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
