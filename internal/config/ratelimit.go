package config

import "time"

// RateLimitConfig is one token bucket policy.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string // ip, account, route, ip_route, account_route or ip_account_route
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads the API-wide policy (RATE_LIMIT_*).
func LoadRateLimitConfig() RateLimitConfig {
	return loadRateLimit("RATE_LIMIT", RateLimitConfig{
		Enabled:        true,
		Capacity:       60,
		RefillTokens:   1,
		RefillInterval: time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_account_route",
		Prefix:         "rl",
	})
}

// LoadLoginRateLimitConfig reads the stricter policy guarding the login and
// refresh endpoints (LOGIN_RATE_LIMIT_*), keyed by client IP.
func LoadLoginRateLimitConfig() RateLimitConfig {
	return loadRateLimit("LOGIN_RATE_LIMIT", RateLimitConfig{
		Enabled:        true,
		Capacity:       10,
		RefillTokens:   1,
		RefillInterval: 6 * time.Second,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "rl-login",
	})
}

func loadRateLimit(prefix string, def RateLimitConfig) RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:        envBool(prefix+"_ENABLED", def.Enabled),
		Capacity:       envInt(prefix+"_CAPACITY", def.Capacity),
		RefillTokens:   envInt(prefix+"_REFILL_TOKENS", def.RefillTokens),
		RefillInterval: envDur(prefix+"_REFILL_INTERVAL", def.RefillInterval),
		TTL:            envDur(prefix+"_TTL", def.TTL),
		KeyStrategy:    envStr(prefix+"_KEY_STRATEGY", def.KeyStrategy),
		Prefix:         envStr(prefix+"_PREFIX", def.Prefix),
		Debug:          envBool(prefix+"_DEBUG", false),
	}
	if b := envInt(prefix+"_BURST", -1); b > 0 {
		cfg.Capacity = b
	}
	if every := envDur(prefix+"_REFILL_EVERY", 0); every > 0 {
		cfg.RefillTokens = 1
		cfg.RefillInterval = every
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillTokens < 1 {
		cfg.RefillTokens = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	// the bucket must outlive a full refill or idle clients start empty
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
