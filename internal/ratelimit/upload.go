package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/meterscan/internal/config"
)

const keyUploadCustomer = "measure:upload:customer:%s"

// UploadLimiter throttles /upload per customer. A nil limiter is valid
// and allows everything.
type UploadLimiter struct {
	enabled bool

	bucket *TokenBucket

	rate  float64
	burst int
}

func NewUploadLimiter(cfg config.Config) (*UploadLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.UploadRate <= 0 || limitCfg.UploadBurst <= 0 {
		return nil, errors.New("upload rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &UploadLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.UploadRate,
		burst:   limitCfg.UploadBurst,
	}, nil
}

func (l *UploadLimiter) Enabled() bool {
	return l != nil && l.enabled
}

// AllowCustomer consumes one upload token for the customer.
func (l *UploadLimiter) AllowCustomer(ctx context.Context, customerCode string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	key := fmt.Sprintf(keyUploadCustomer, strings.TrimSpace(customerCode))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
