package app

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papermill_reel_tracker/config"
)

func TestEnsureIssuerTokenKeepsSecretOutOfLogs(t *testing.T) {
	var logs, out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	cfg := config.Config{}
	EnsureIssuerToken(&cfg, log, &out)

	require.Len(t, cfg.SessionIssuerToken, 32)
	assert.Contains(t, out.String(), cfg.SessionIssuerToken)
	assert.Contains(t, logs.String(), "generated a temporary one")
	assert.NotContains(t, logs.String(), cfg.SessionIssuerToken)
}

func TestEnsureIssuerTokenKeepsConfigured(t *testing.T) {
	var logs, out bytes.Buffer
	cfg := config.Config{SessionIssuerToken: "set"}
	EnsureIssuerToken(&cfg, slog.New(slog.NewTextHandler(&logs, nil)), &out)

	assert.Equal(t, "set", cfg.SessionIssuerToken)
	assert.Empty(t, out.String())
	assert.Empty(t, logs.String())
}
