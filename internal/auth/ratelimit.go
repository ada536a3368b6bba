package auth

import (
	"sync"
	"time"
)

// RateLimiter throttles failed manage key attempts per client IP within a
// fixed window, locking the IP out once the limit is reached.
type RateLimiter struct {
	mu       sync.Mutex
	attempts map[string]*attemptRecord
	cfg      RateLimitConfig
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

type attemptRecord struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// RateLimitConfig configures RateLimiter. Zero fields take the defaults.
type RateLimitConfig struct {
	MaxAttempts     int           // failures allowed per window (5)
	WindowDuration  time.Duration // failure counting window (15m)
	LockoutDuration time.Duration // lockout after MaxAttempts failures (30m)
	CleanupInterval time.Duration // expired record purge interval (5m)
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxAttempts:     5,
		WindowDuration:  15 * time.Minute,
		LockoutDuration: 30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// NewRateLimiter starts a limiter and its cleanup goroutine; call Stop.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.WindowDuration <= 0 {
		cfg.WindowDuration = def.WindowDuration
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = def.LockoutDuration
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}

	rl := &RateLimiter{
		attempts: make(map[string]*attemptRecord),
		cfg:      cfg,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// Allow reports whether ip may try a key now, and if not, for how long it
// is locked out.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.attempts[ip]
	if !ok {
		return true, 0
	}
	if !record.lockedUntil.IsZero() && now.Before(record.lockedUntil) {
		return false, record.lockedUntil.Sub(now)
	}
	if now.Sub(record.firstAttempt) > rl.cfg.WindowDuration || record.count < rl.cfg.MaxAttempts {
		return true, 0
	}
	return false, rl.cfg.LockoutDuration
}

// RecordFailure counts a wrong key. It reports whether ip is now locked out.
func (rl *RateLimiter) RecordFailure(ip string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	record, ok := rl.attempts[ip]
	if !ok || now.Sub(record.firstAttempt) > rl.cfg.WindowDuration {
		record = &attemptRecord{firstAttempt: now}
		rl.attempts[ip] = record
	}

	record.count++
	if record.count >= rl.cfg.MaxAttempts {
		record.lockedUntil = now.Add(rl.cfg.LockoutDuration)
		return true, rl.cfg.LockoutDuration
	}
	return false, 0
}

// RecordSuccess forgets the failures of ip.
func (rl *RateLimiter) RecordSuccess(ip string) {
	rl.mu.Lock()
	delete(rl.attempts, ip)
	rl.mu.Unlock()
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stop:
			return
		}
	}
}

// cleanup drops records whose window and lockout have both passed.
func (rl *RateLimiter) cleanup() {
	now := rl.now()
	expiry := rl.cfg.WindowDuration + rl.cfg.LockoutDuration

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, record := range rl.attempts {
		if now.Sub(record.firstAttempt) > expiry && (record.lockedUntil.IsZero() || now.After(record.lockedUntil)) {
			delete(rl.attempts, ip)
		}
	}
}
