package redis

import (
	"context"
	"testing"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	log, err := logger.Development()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Addrs = []string{mr.Addr()}

	client, err := New(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "no addrs", mutate: func(c *Config) { c.Addrs = nil }, wantErr: true},
		{name: "single with two addrs", mutate: func(c *Config) { c.Addrs = []string{"a:1", "b:2"} }, wantErr: true},
		{name: "sentinel without master", mutate: func(c *Config) { c.Mode = ModeSentinel }, wantErr: true},
		{name: "sentinel", mutate: func(c *Config) { c.Mode, c.MasterName = ModeSentinel, "mymaster" }},
		{name: "cluster with db", mutate: func(c *Config) { c.Mode, c.DB = ModeCluster, 2 }, wantErr: true},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "ring" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "k", "v", time.Minute).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)

	_, err = client.Get(ctx, "missing").Result()
	assert.True(t, IsNil(err))
}

func TestNew_Unreachable(t *testing.T) {
	log, err := logger.Development()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Addrs = []string{"127.0.0.1:1"}
	cfg.DialTimeout = 100 * time.Millisecond
	cfg.MaxRetries = -1

	_, err = New(cfg, log)
	assert.Error(t, err)
}

func TestClient_Key(t *testing.T) {
	client, _ := newTestClient(t)
	assert.Equal(t, "prb:search:google:abc", client.Key("search", "google", "abc"))

	client.config.KeyPrefix = ""
	assert.Equal(t, "search:abc", client.Key("search", "abc"))
}

func TestClient_HealthCheck(t *testing.T) {
	client, mr := newTestClient(t)
	assert.NoError(t, client.HealthCheck(context.Background()))

	mr.SetError("LOADING")
	assert.Error(t, client.HealthCheck(context.Background()))
}
