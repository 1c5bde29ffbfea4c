package ratelimit

import (
	"context"
	"testing"

	"github.com/smallbiznis/meterscan/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploadLimiterDisabled(t *testing.T) {
	limiter, err := NewUploadLimiter(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	allowed, err := limiter.AllowCustomer(context.Background(), "cust-1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestNewUploadLimiterValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.RateLimitConfig
	}{
		{
			name: "missing redis addr",
			cfg:  config.RateLimitConfig{Enabled: true, UploadRate: 1, UploadBurst: 5},
		},
		{
			name: "zero rate",
			cfg:  config.RateLimitConfig{Enabled: true, RedisAddr: "localhost:6379", UploadBurst: 5},
		},
		{
			name: "zero burst",
			cfg:  config.RateLimitConfig{Enabled: true, RedisAddr: "localhost:6379", UploadRate: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewUploadLimiter(config.Config{RateLimit: tt.cfg})
			assert.Error(t, err)
		})
	}
}

func TestNewUploadLimiterEnabled(t *testing.T) {
	limiter, err := NewUploadLimiter(config.Config{RateLimit: config.RateLimitConfig{
		Enabled:     true,
		RedisAddr:   "localhost:6379",
		UploadRate:  2,
		UploadBurst: 10,
	}})
	require.NoError(t, err)
	assert.True(t, limiter.Enabled())
}
