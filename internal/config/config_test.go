package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnvDefaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := LoadEnv()

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Orders.DuplicateWindow)
	assert.InDelta(t, 0.05, cfg.Orders.DuplicateTolerance, 1e-9)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ORDER_DUPLICATE_WINDOW", "2m")
	t.Setenv("ORDER_DUPLICATE_TOLERANCE", "0.1")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")

	cfg := LoadEnv()

	assert.Equal(t, 2*time.Minute, cfg.Orders.DuplicateWindow)
	assert.InDelta(t, 0.1, cfg.Orders.DuplicateTolerance, 1e-9)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 100, cfg.Database.MaxOpenConns)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{URL: "postgres://u:p@db:5432/pos?sslmode=disable"}
	assert.Equal(t, c.URL, c.DSN())

	c = DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable", TimeZone: "UTC"}
	assert.Equal(t, "host=h user=u password=p dbname=d port=5432 sslmode=disable TimeZone=UTC", c.DSN())
}
