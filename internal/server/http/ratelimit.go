package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/and161185/quill/internal/errs"
)

// maxClients caps the number of tracked buckets.
const maxClients = 1 << 16

type keyLimiter struct {
	lim *rate.Limiter
	ts  time.Time
}

// ipLimiter keeps one token bucket per client address. Idle buckets are dropped after ttl.
// Once max buckets are live, new addresses share a single overflow bucket.
type ipLimiter struct {
	mu       sync.Mutex
	m        map[string]*keyLimiter
	r        rate.Limit
	b        int
	ttl      time.Duration
	max      int
	overflow *rate.Limiter
	now      func() time.Time
	stop     chan struct{}
	once     sync.Once
}

func newIPLimiter(r rate.Limit, burst int, ttl time.Duration) *ipLimiter {
	return &ipLimiter{
		m:        make(map[string]*keyLimiter),
		r:        r,
		b:        burst,
		ttl:      ttl,
		max:      maxClients,
		overflow: rate.NewLimiter(r, burst),
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

func (l *ipLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	kl, ok := l.m[key]
	if ok {
		kl.ts = l.now()
		return kl.lim
	}
	if len(l.m) >= l.max {
		l.sweepLocked()
		if len(l.m) >= l.max {
			return l.overflow
		}
	}
	lim := rate.NewLimiter(l.r, l.b)
	l.m[key] = &keyLimiter{lim: lim, ts: l.now()}
	return lim
}

func (l *ipLimiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked()
}

func (l *ipLimiter) sweepLocked() {
	now := l.now()
	for k, v := range l.m {
		if now.Sub(v.ts) > l.ttl {
			delete(l.m, k)
		}
	}
}

func (l *ipLimiter) gc(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// Stop ends the gc goroutine.
func (l *ipLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.get(clientIP(r.RemoteAddr)).Allow() {
			s.writeError(w, r, errs.ErrRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(remote string) string {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		return remote
	}
	return host
}
