package api

import (
	"sync"
	"time"
)

// RateLimiter implements per-user rate limiting for message appends
// ARCHITECTURAL DISCOVERY: Per-user state tracking with proper cleanup prevents memory leaks
type RateLimiter struct {
	mu      sync.Mutex
	limit   int
	clients map[string]*clientLimit
}

// clientLimit tracks rate limiting for a single user
// FUNCTIONAL DISCOVERY: Window with minute-based reset provides an exact
// per-minute append budget
type clientLimit struct {
	messageCount int
	windowStart  time.Time
}

// NewRateLimiter creates a new rate limiter allowing limit appends per minute.
func NewRateLimiter(limit int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		clients: make(map[string]*clientLimit),
	}
}

// Allow checks if the user can append another message this minute.
func (rl *RateLimiter) Allow(username string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	limit, exists := rl.clients[username]
	if !exists {
		// First message always allowed, initialize tracking
		rl.clients[username] = &clientLimit{
			messageCount: 1,
			windowStart:  now,
		}
		return true
	}

	// Check if new minute window needed
	if now.Sub(limit.windowStart) >= time.Minute {
		limit.messageCount = 1
		limit.windowStart = now
		return true
	}

	if limit.messageCount >= rl.limit {
		return false
	}

	limit.messageCount++
	return true
}

// cleanupLoop evicts stale client state once a minute.
func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.Cleanup()
	}
}

// Cleanup removes old user entries (call periodically)
// ARCHITECTURAL DISCOVERY: Prevent memory leaks by removing stale per-user
// state after 5 minutes of inactivity (5x the rate limit window)
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for username, limit := range rl.clients {
		if now.Sub(limit.windowStart) > 5*time.Minute {
			delete(rl.clients, username)
		}
	}
}
