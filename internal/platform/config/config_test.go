package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "CFC2025", cfg.Registration.IDPrefix)
	assert.Equal(t, "fs", cfg.Registration.AttachmentBackend)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout)
	assert.False(t, cfg.Gateway.AckUnknownWebhooks)
	assert.Empty(t, cfg.Mongo.URI)
}

func TestLoadOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REGISTRATION_ID_PREFIX", "CFC2026")
	t.Setenv("RAZORPAY_TIMEOUT", "3s")
	t.Setenv("WEBHOOK_ACK_UNKNOWN", "true")
	t.Setenv("RECONCILE_BATCH_SIZE", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "CFC2026", cfg.Registration.IDPrefix)
	assert.Equal(t, 3*time.Second, cfg.Gateway.Timeout)
	assert.True(t, cfg.Gateway.AckUnknownWebhooks)
	assert.Equal(t, 10, cfg.Reconcile.BatchSize)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RAZORPAY_TIMEOUT", "ten seconds")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RAZORPAY_TIMEOUT")
}

func TestLoadRejectsGridFSWithoutMongo(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ATTACHMENT_BACKEND", "gridfs")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresGatewayKeysInProduction(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsPlaintextAdminToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ADMIN_TOKEN_HASH", "creg_not-a-hash")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_TOKEN_HASH")
}
