package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/iudanet/notesync/pkg/api"
)

// maxCounters ограничивает число отслеживаемых клиентов
const maxCounters = 100_000

// Rule лимит запросов для путей с общим префиксом.
// Пустой Prefix подходит к любому пути.
type Rule struct {
	Prefix string
	Rate   int
	Window time.Duration
}

type counter struct {
	started time.Time
	mu      sync.Mutex
	hits    int
}

// Limiter считает запросы клиента в фиксированном окне отдельно для каждого правила.
// Счетчики хранятся в ttlcache и вытесняются после простоя.
type Limiter struct {
	counters *ttlcache.Cache[string, *counter]
	logger   *slog.Logger
	now      func() time.Time
	rules    []Rule
}

// NewLimiter создает limiter. Правила проверяются по порядку, срабатывает первое
// подходящее; путь без правила не ограничивается.
func NewLimiter(logger *slog.Logger, rules ...Rule) *Limiter {
	ttl := time.Minute
	for _, r := range rules {
		if 2*r.Window > ttl {
			ttl = 2 * r.Window
		}
	}

	l := &Limiter{
		counters: ttlcache.New[string, *counter](
			ttlcache.WithTTL[string, *counter](ttl),
			ttlcache.WithCapacity[string, *counter](maxCounters),
		),
		logger: logger,
		now:    time.Now,
		rules:  rules,
	}
	go l.counters.Start()
	return l
}

// Stop останавливает очистку кэша
func (l *Limiter) Stop() {
	l.counters.Stop()
}

func (l *Limiter) match(path string) (int, bool) {
	for i, r := range l.rules {
		if strings.HasPrefix(path, r.Prefix) {
			return i, true
		}
	}
	return 0, false
}

// allow засчитывает запрос клиента по правилу idx.
// При отказе возвращает время до начала следующего окна.
func (l *Limiter) allow(idx int, client string) (bool, time.Duration) {
	rule := l.rules[idx]
	key := strconv.Itoa(idx) + "|" + client

	item, _ := l.counters.GetOrSet(key, &counter{started: l.now()})
	c := item.Value()

	c.mu.Lock()
	defer c.mu.Unlock()

	now := l.now()
	if elapsed := now.Sub(c.started); elapsed >= rule.Window {
		c.started = now
		c.hits = 0
	}
	if c.hits >= rule.Rate {
		return false, rule.Window - now.Sub(c.started)
	}
	c.hits++
	return true, 0
}

// Middleware отвечает 429 с Retry-After, когда клиент исчерпал лимит пути
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx, ok := l.match(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		client := clientIP(r)
		allowed, wait := l.allow(idx, client)
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		l.logger.WarnContext(r.Context(), "rate limit exceeded",
			slog.String("client", client),
			slog.String("rule", l.rules[idx].Prefix),
			slog.String("path", r.URL.Path),
		)
		seconds := int(wait.Round(time.Second) / time.Second)
		w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
		writeJSONError(w, http.StatusTooManyRequests, "too many requests, retry later")
	})
}

// clientIP адрес клиента с учетом прокси (первый адрес X-Forwarded-For, затем X-Real-IP)
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: http.StatusText(status), Message: message})
}
