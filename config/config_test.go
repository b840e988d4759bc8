package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DB_USER", "admin")
	t.Setenv("DB_NAME", "healthadmin")
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 4*1024*1024, cfg.BodyLimitBytes)
	assert.Equal(t, 60, cfg.RateLimitMax)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, AuditSinkDB, cfg.AuditSink)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Contains(t, cfg.DSN(), "dbname=healthadmin")
}

func TestLoad_BodyLimitBytesWins(t *testing.T) {
	setRequired(t)
	t.Setenv("BODY_LIMIT_BYTES", "1024")
	t.Setenv("BODY_LIMIT_MB", "9")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 1024, cfg.BodyLimitBytes)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("DB_USER", "admin")
	t.Setenv("DB_NAME", "healthadmin")
	t.Setenv("JWT_SECRET_KEY", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET_KEY")
}

func TestLoad_KafkaSinkNeedsBroker(t *testing.T) {
	setRequired(t)
	t.Setenv("AUDIT_SINK", "kafka")
	t.Setenv("KAFKA_BROKER", "")

	_, err := Load()
	assert.ErrorContains(t, err, "KAFKA_BROKER")
}

func TestLoad_UnknownSink(t *testing.T) {
	setRequired(t)
	t.Setenv("AUDIT_SINK", "carrier-pigeon")

	_, err := Load()
	assert.ErrorContains(t, err, "unknown AUDIT_SINK")
}
