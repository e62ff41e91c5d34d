package webhook

import (
	"net"
	"strings"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// RateLimiter enforces a per-source-IP request budget over a sliding window:
// a request is allowed while fewer than limit requests were accepted within
// the window ending now. Each IP has an independent counter; one noisy source
// cannot exhaust the budget of another.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
	clock  clockz.Clock
}

// NewRateLimiter creates a rate limiter allowing limit requests per window
// per IP
func NewRateLimiter(limit int, window time.Duration, clock clockz.Clock) *RateLimiter {
	if clock == nil {
		clock = clockz.RealClock
	}

	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		clock:  clock,
	}
}

// Allow reports whether the source IP is within its budget, counting the call
func (l *RateLimiter) Allow(ip string) bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	hits := l.hits[ip]
	expired := 0
	for expired < len(hits) && now.Sub(hits[expired]) >= l.window {
		expired++
	}
	hits = hits[expired:]

	if len(hits) >= l.limit {
		l.hits[ip] = hits
		return false
	}

	// The map holds at most limit timestamps per distinct source
	l.hits[ip] = append(hits, now)
	return true
}

// IPAllowList restricts webhook sources to a configured set of addresses.
// A single "*" entry disables filtering entirely.
type IPAllowList struct {
	allowAll bool
	exact    map[string]struct{}
	networks []*net.IPNet
}

// NewIPAllowList builds an allowlist from exact IPs and CIDR ranges
func NewIPAllowList(entries []string) *IPAllowList {
	list := &IPAllowList{
		exact: make(map[string]struct{}),
	}

	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if entry == "*" {
			list.allowAll = true
			continue
		}
		if _, network, err := net.ParseCIDR(entry); err == nil {
			list.networks = append(list.networks, network)
			continue
		}
		list.exact[entry] = struct{}{}
	}

	return list
}

// Allowed reports whether the source IP may deliver webhooks
func (l *IPAllowList) Allowed(ip string) bool {
	if l.allowAll {
		return true
	}

	if _, ok := l.exact[ip]; ok {
		return true
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}

	for _, network := range l.networks {
		if network.Contains(parsed) {
			return true
		}
	}

	return false
}
