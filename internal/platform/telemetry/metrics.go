package telemetry

import (
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
)

var durationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// histogram keeps non-cumulative bucket counts; cumulative counts are
// computed on export.
type histogram struct {
	mu      sync.Mutex
	buckets []int64
	count   int64
	sum     float64
}

func newHistogram() *histogram {
	return &histogram{buckets: make([]int64, len(durationBuckets))}
}

func (h *histogram) observe(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += v
	for i, b := range durationBuckets {
		if v <= b {
			h.buckets[i]++
			return
		}
	}
}

type histogramSnapshot struct {
	cumulative []int64
	count      int64
	sum        float64
}

func (h *histogram) snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	cum := make([]int64, len(h.buckets))
	var running int64
	for i, c := range h.buckets {
		running += c
		cum[i] = running
	}
	return histogramSnapshot{cumulative: cum, count: h.count, sum: h.sum}
}

// Registry holds the service's process-local metrics.
type Registry struct {
	active atomic.Int64

	mu        sync.RWMutex
	requests  map[string]*histogram // method|route|status
	aiCalls   map[string]*int64     // provider|op|outcome
	fallbacks map[string]*int64     // op
}

func NewRegistry() *Registry {
	return &Registry{
		requests:  make(map[string]*histogram),
		aiCalls:   make(map[string]*int64),
		fallbacks: make(map[string]*int64),
	}
}

func labelKey(parts ...string) string { return strings.Join(parts, "|") }

// ObserveRequest records one finished HTTP request.
func (r *Registry) ObserveRequest(method, route, status string, d time.Duration) {
	key := labelKey(method, route, status)
	r.mu.RLock()
	h, ok := r.requests[key]
	r.mu.RUnlock()
	if !ok {
		r.mu.Lock()
		if h, ok = r.requests[key]; !ok {
			h = newHistogram()
			r.requests[key] = h
		}
		r.mu.Unlock()
	}
	h.observe(d.Seconds())
}

// IncAICall counts one call to an AI backend. outcome is "ok" or "error".
func (r *Registry) IncAICall(provider, op, outcome string) {
	r.inc(r.aiCalls, labelKey(provider, op, outcome))
}

// IncFallback counts one deterministic fallback taken by op.
func (r *Registry) IncFallback(op string) {
	r.inc(r.fallbacks, op)
}

func (r *Registry) inc(m map[string]*int64, key string) {
	r.mu.RLock()
	p, ok := m[key]
	r.mu.RUnlock()
	if ok {
		atomic.AddInt64(p, 1)
		return
	}
	r.mu.Lock()
	if p, ok = m[key]; !ok {
		p = new(int64)
		m[key] = p
	}
	r.mu.Unlock()
	atomic.AddInt64(p, 1)
}

// AICalls returns the current value of an AI call counter.
func (r *Registry) AICalls(provider, op, outcome string) int64 {
	return r.load(r.aiCalls, labelKey(provider, op, outcome))
}

func (r *Registry) Fallbacks(op string) int64 {
	return r.load(r.fallbacks, op)
}

func (r *Registry) load(m map[string]*int64, key string) int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := m[key]; ok {
		return atomic.LoadInt64(p)
	}
	return 0
}

// Handler serves the registry in Prometheus text exposition format.
func (r *Registry) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		var b strings.Builder
		r.write(&b)
		return c.Blob(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(b.String()))
	}
}

func (r *Registry) write(b *strings.Builder) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b.WriteString("# HELP http_server_active_requests Number of in-flight HTTP requests.\n")
	b.WriteString("# TYPE http_server_active_requests gauge\n")
	fmt.Fprintf(b, "http_server_active_requests %d\n\n", r.active.Load())

	b.WriteString("# HELP http_server_request_duration_seconds Duration of HTTP requests in seconds.\n")
	b.WriteString("# TYPE http_server_request_duration_seconds histogram\n")
	for _, key := range sortedKeys(r.requests) {
		p := strings.SplitN(key, "|", 3)
		labels := fmt.Sprintf("method=%q,route=%q,status_code=%q", p[0], p[1], p[2])
		s := r.requests[key].snapshot()
		for i, le := range durationBuckets {
			fmt.Fprintf(b, "http_server_request_duration_seconds_bucket{%s,le=\"%g\"} %d\n", labels, le, s.cumulative[i])
		}
		fmt.Fprintf(b, "http_server_request_duration_seconds_bucket{%s,le=\"+Inf\"} %d\n", labels, s.count)
		fmt.Fprintf(b, "http_server_request_duration_seconds_sum{%s} %s\n", labels, formatFloat(s.sum))
		fmt.Fprintf(b, "http_server_request_duration_seconds_count{%s} %d\n", labels, s.count)
	}
	b.WriteByte('\n')

	b.WriteString("# HELP ai_requests_total Calls to AI backends by provider, operation and outcome.\n")
	b.WriteString("# TYPE ai_requests_total counter\n")
	for _, key := range sortedKeys(r.aiCalls) {
		p := strings.SplitN(key, "|", 3)
		fmt.Fprintf(b, "ai_requests_total{provider=%q,operation=%q,outcome=%q} %d\n",
			p[0], p[1], p[2], atomic.LoadInt64(r.aiCalls[key]))
	}
	b.WriteByte('\n')

	b.WriteString("# HELP ai_fallbacks_total Deterministic fallbacks taken after an AI failure.\n")
	b.WriteString("# TYPE ai_fallbacks_total counter\n")
	for _, key := range sortedKeys(r.fallbacks) {
		fmt.Fprintf(b, "ai_fallbacks_total{operation=%q} %d\n", key, atomic.LoadInt64(r.fallbacks[key]))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "0"
	}
	return fmt.Sprintf("%g", f)
}
