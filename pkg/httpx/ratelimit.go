package httpx

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/explorer/pkg/slogx"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

// RateLimitConfig is a token bucket: RequestsPerWindow tokens refill evenly
// over Window and at most Burst can be spent at once.
type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
	Burst             int
}

// Limit is the refill rate in tokens per second.
func (c RateLimitConfig) Limit() rate.Limit {
	if c.Window <= 0 {
		return rate.Inf
	}
	return rate.Limit(float64(c.RequestsPerWindow) / c.Window.Seconds())
}

// idle is how long an untouched bucket takes to refill completely. After
// that it is indistinguishable from a new one and can be dropped.
func (c RateLimitConfig) idle() time.Duration {
	if c.RequestsPerWindow <= 0 {
		return c.Window
	}
	full := time.Duration(float64(c.Window) * float64(c.Burst) / float64(c.RequestsPerWindow))
	return max(full, c.Window)
}

// Rate limit profiles. RATELIMIT_<NAME>_REQUESTS, RATELIMIT_<NAME>_WINDOW_SEC
// and RATELIMIT_<NAME>_BURST override them at startup.
var (
	// StrictLimit guards credential endpoints.
	StrictLimit = RateLimitConfig{RequestsPerWindow: 5, Window: time.Minute, Burst: 5}

	// WriteLimit covers authenticated writes: apps, reviews, replies, votes.
	WriteLimit = RateLimitConfig{RequestsPerWindow: 30, Window: time.Minute, Burst: 10}

	// UploadLimit covers media uploads and deletes.
	UploadLimit = RateLimitConfig{RequestsPerWindow: 20, Window: time.Minute, Burst: 5}

	// PublicLimit covers anonymous catalogue reads.
	PublicLimit = RateLimitConfig{RequestsPerWindow: 600, Window: time.Minute, Burst: 100}
)

func init() {
	StrictLimit = ParseRateLimitFromEnv("STRICT", StrictLimit)
	WriteLimit = ParseRateLimitFromEnv("WRITE", WriteLimit)
	UploadLimit = ParseRateLimitFromEnv("UPLOAD", UploadLimit)
	PublicLimit = ParseRateLimitFromEnv("PUBLIC", PublicLimit)
}

// ParseRateLimitFromEnv returns def with any positive RATELIMIT_<name>_*
// values applied. Malformed values are ignored.
func ParseRateLimitFromEnv(name string, def RateLimitConfig) RateLimitConfig {
	positive := func(suffix string) (int, bool) {
		n, err := strconv.Atoi(os.Getenv("RATELIMIT_" + name + "_" + suffix))
		return n, err == nil && n > 0
	}

	cfg := def
	if n, ok := positive("REQUESTS"); ok {
		cfg.RequestsPerWindow = n
	}
	if n, ok := positive("WINDOW_SEC"); ok {
		cfg.Window = time.Duration(n) * time.Second
	}
	if n, ok := positive("BURST"); ok {
		cfg.Burst = n
	}
	return cfg
}

// KeyExtractor names the bucket a request draws from. An empty key skips
// limiting for that request.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor keys on the client address, preferring the first
// X-Forwarded-For hop, then X-Real-IP, then the socket peer.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// UserIDKeyExtractor keys on the authenticated subject.
func UserIDKeyExtractor(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// CompositeKeyExtractor joins the non-empty keys of each extractor with sep.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if k := extract(r); k != "" {
				parts = append(parts, k)
			}
		}
		return strings.Join(parts, sep)
	}
}

// JSONFieldKeyExtractor keys on a string field of the JSON body, lowercased
// and trimmed. The body is buffered and put back for the handler.
func JSONFieldKeyExtractor(field string) KeyExtractor {
	return func(r *http.Request) string {
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(io.LimitReader(r.Body, MaxJSONBody))
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return ""
		}

		var body map[string]any
		if json.Unmarshal(raw, &body) != nil {
			return ""
		}
		v, _ := body[field].(string)
		return strings.ToLower(strings.TrimSpace(v))
	}
}

// buckets holds one limiter per key. Idle buckets expire once they would
// have refilled anyway.
type buckets struct {
	cfg   RateLimitConfig
	cache *ttlcache.Cache[string, *rate.Limiter]
}

func newBuckets(cfg RateLimitConfig) *buckets {
	return &buckets{
		cfg: cfg,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *rate.Limiter](cfg.idle()),
			ttlcache.WithCapacity[string, *rate.Limiter](100_000),
		),
	}
}

func (b *buckets) get(key string) *rate.Limiter {
	item, _ := b.cache.GetOrSet(key, rate.NewLimiter(b.cfg.Limit(), b.cfg.Burst))
	return item.Value()
}

// retryAfter is the whole number of seconds until l holds a token again.
func retryAfter(l *rate.Limiter) int {
	missing := 1 - l.Tokens()
	if missing <= 0 || l.Limit() <= 0 || l.Limit() == rate.Inf {
		return 1
	}
	return max(int(math.Ceil(missing/float64(l.Limit()))), 1)
}

// RateLimitMiddleware rejects requests with 429 once the bucket chosen by
// key is empty.
func RateLimitMiddleware(cfg RateLimitConfig, key KeyExtractor) Middleware {
	b := newBuckets(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			limiter := b.get(k)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			wait := retryAfter(limiter)
			w.Header().Set("Retry-After", strconv.Itoa(wait))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerWindow))
			w.Header().Set("X-RateLimit-Window", cfg.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limited",
				"key", k,
				"path", r.URL.Path,
				"retry_after", wait,
			)
			WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		})
	}
}

// RateLimitByIP limits per client address.
func RateLimitByIP(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, IPKeyExtractor)
}

// RateLimitByUser limits per authenticated user and address. Anonymous
// requests fall back to the address alone.
func RateLimitByUser(cfg RateLimitConfig) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", UserIDKeyExtractor, IPKeyExtractor))
}

// RateLimitByIPAndJSONField limits per address and body field. Login uses
// the email field so guessing one account's password does not lock out
// other accounts behind the same address.
func RateLimitByIPAndJSONField(cfg RateLimitConfig, field string) Middleware {
	return RateLimitMiddleware(cfg, CompositeKeyExtractor(":", IPKeyExtractor, JSONFieldKeyExtractor(field)))
}
