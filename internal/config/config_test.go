package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("PG_MAX_CONNS", "4")

	cfg := Load()
	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, int32(4), cfg.PGMaxConns)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("TOKEN_TTL", "soon")
	t.Setenv("BCRYPT_COST", "high")

	cfg := Load()
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
}
