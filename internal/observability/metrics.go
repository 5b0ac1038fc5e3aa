// Package observability implements a minimal Prometheus text-format exporter
// for this system's own counters: HTTP request stats plus a handful of
// domain counters, using hand-rolled Counter/CounterVec/HistogramVec types
// rather than pulling in a metrics client library.
package observability

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

type Metrics struct {
	apiRequests  *CounterVec
	apiLatency   *HistogramVec
	apiInflight  *Gauge

	trajectoriesStarted   *Counter
	trajectoriesCompleted *Counter
	trajectoryDuration    *HistogramVec

	tagParses    *CounterVec
	edgesCreated *CounterVec
	sseEvents    *CounterVec

	llmStreamErrors *Counter
	llmLatency      *HistogramVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

// Enabled is an opt-in switch: metrics collection has a real (if small)
// runtime cost, so it stays off unless explicitly requested.
func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

func Init() *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = &Metrics{
			apiRequests: NewCounterVec("http_requests_total", "HTTP requests by method, route, and status", []string{"method", "route", "status"}),
			apiLatency:  NewHistogramVec("http_request_duration_seconds", "HTTP request latency", []string{"method", "route"}, nil),
			apiInflight: NewGauge("http_requests_inflight", "HTTP requests currently being served"),

			trajectoriesStarted:   NewCounter("trajectories_started_total", "Trajectories opened"),
			trajectoriesCompleted: NewCounter("trajectories_completed_total", "Trajectories that reached CompleteTrajectory"),
			trajectoryDuration:    NewHistogramVec("trajectory_duration_seconds", "Wall-clock duration of a completed trajectory", nil, nil),

			tagParses:    NewCounterVec("tag_parses_total", "Bracket tags parsed out of turn text, by kind", []string{"kind"}),
			edgesCreated: NewCounterVec("edges_created_total", "Graph edges created, by edge type", []string{"edge_type"}),
			sseEvents:    NewCounterVec("sse_events_emitted_total", "SSE frames emitted, by event type", []string{"event_type"}),

			llmStreamErrors: NewCounter("llm_stream_errors_total", "Streaming completion calls that ended in an error"),
			llmLatency:      NewHistogramVec("llm_stream_duration_seconds", "Duration of a streaming completion call", []string{"model"}, nil),
		}
	})
	return instance
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
}

// orNop lets the one-line counter methods below run on a nil *Metrics by
// substituting an empty Metrics, whose nil counters ignore every call.
func (m *Metrics) orNop() *Metrics {
	if m == nil {
		return &Metrics{}
	}
	return m
}

func (m *Metrics) ApiInflightInc() { m.orNop().apiInflight.Inc() }
func (m *Metrics) ApiInflightDec() { m.orNop().apiInflight.Dec() }

func (m *Metrics) IncTrajectoryStarted() { m.orNop().trajectoriesStarted.Inc() }

func (m *Metrics) ObserveTrajectoryCompleted(dur time.Duration) {
	if m == nil {
		return
	}
	m.trajectoriesCompleted.Inc()
	m.trajectoryDuration.Observe(dur.Seconds())
}

func (m *Metrics) IncTagParse(kind string)    { m.orNop().tagParses.Inc(kind) }
func (m *Metrics) IncEdgeCreated(edgeType string) { m.orNop().edgesCreated.Inc(edgeType) }
func (m *Metrics) IncSSEEvent(eventType string)   { m.orNop().sseEvents.Inc(eventType) }

func (m *Metrics) IncLLMStreamError() { m.orNop().llmStreamErrors.Inc() }

func (m *Metrics) ObserveLLMStream(model string, dur time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(dur.Seconds(), model)
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.trajectoriesStarted, m.trajectoriesCompleted, m.trajectoryDuration,
		m.tagParses, m.edgesCreated, m.sseEvents,
		m.llmStreamErrors, m.llmLatency,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter { return &Counter{name: name, help: help} }

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type Gauge struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewGauge(name, help string) *Gauge { return &Gauge{name: name, help: help} }

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val++
	g.mu.Unlock()
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val--
	g.mu.Unlock()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n", g.name, g.help, g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", g.name, g.val)
	return err
}

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n", c.name, c.help, c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{buckets: h.buckets, counts: make([]uint64, len(h.buckets)+1)}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.buckets)]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", h.name, h.help, h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for lbl, hist := range h.values {
		for i, b := range hist.buckets {
			le := strconv.FormatFloat(b, 'f', -1, 64)
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(lbl, le), hist.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(lbl, "+Inf"), hist.counts[len(hist.buckets)]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, lbl, hist.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, lbl, hist.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	if strings.HasSuffix(labels, "}") {
		return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
	}
	return "{le=\"" + le + "\"}"
}
