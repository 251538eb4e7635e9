package session

import "time"

const maxShift = 30

// NextBackoffAttempt advances the reconnect counter after one fault: 0..7
// step up by one, MaxExponent (or anything out of range) wraps to 1.
func NextBackoffAttempt(cfg BackoffConfig, attempt int) int {
	limit := cfg.MaxExponent
	if limit < 1 {
		limit = 1
	}
	if attempt < 0 || attempt >= limit {
		return 1
	}
	return attempt + 1
}

// BackoffDelay returns Unit * 2^attempt, treating attempts below 1 as 1 and
// clamping above MaxExponent.
func BackoffDelay(cfg BackoffConfig, attempt int) time.Duration {
	if cfg.Unit <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}
	if cfg.MaxExponent > 0 && attempt > cfg.MaxExponent {
		attempt = cfg.MaxExponent
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	return cfg.Unit * time.Duration(int64(1)<<uint(attempt))
}
