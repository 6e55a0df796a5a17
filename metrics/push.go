package metrics

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/snappy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/prometheus/prompb"
)

// DefaultTimeout bounds a single remote write.
const DefaultTimeout = 30 * time.Second

// PushConfig configures a PushRegistry.
type PushConfig struct {
	// URL is the base URL of the remote write endpoint, e.g. "http://localhost:8428".
	URL string
	// Prefix is joined to every metric name with an underscore.
	Prefix string
	// Job and Instance become labels on every series.
	Job      string
	Instance string
	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration
}

// PushRegistry is a Registry for short-lived processes. Metric updates only
// touch an in-memory buffer; Flush sends the latest value of every series in
// a single remote write request.
type PushRegistry struct {
	url      string
	client   *http.Client
	prefix   string
	job      string
	instance string
	now      func() time.Time

	mu     sync.Mutex
	series map[string]*pushSeries
}

type pushSeries struct {
	name   string
	labels prometheus.Labels
	value  float64
}

// NewPushRegistry returns a registry that writes to cfg.URL.
func NewPushRegistry(cfg PushConfig) *PushRegistry {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PushRegistry{
		url:      strings.TrimSuffix(cfg.URL, "/") + "/api/v1/write",
		client:   &http.Client{Timeout: timeout},
		prefix:   cfg.Prefix,
		job:      cfg.Job,
		instance: cfg.Instance,
		now:      time.Now,
		series:   make(map[string]*pushSeries),
	}
}

// NewGauge returns a buffered Gauge.
func (r *PushRegistry) NewGauge(opts prometheus.GaugeOpts) (Gauge, error) {
	return pushGauge{r.seriesFor(opts.Name, nil)}, nil
}

// NewGaugeVec returns a buffered GaugeVec.
func (r *PushRegistry) NewGaugeVec(opts prometheus.GaugeOpts, _ []string) (GaugeVec, error) {
	return pushGaugeVec{registry: r, name: opts.Name}, nil
}

// NewCounter returns a buffered Counter.
func (r *PushRegistry) NewCounter(opts prometheus.CounterOpts) (Counter, error) {
	return pushCounter{r.seriesFor(opts.Name, nil)}, nil
}

// NewCounterVec returns a buffered CounterVec.
func (r *PushRegistry) NewCounterVec(opts prometheus.CounterOpts, _ []string) (CounterVec, error) {
	return pushCounterVec{registry: r, name: opts.Name}, nil
}

// seriesHandle identifies one series inside the registry buffer.
type seriesHandle struct {
	registry *PushRegistry
	key      string
}

func (r *PushRegistry) seriesFor(name string, labels prometheus.Labels) seriesHandle {
	key := seriesKey(name, labels)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.series[key]; !ok {
		r.series[key] = &pushSeries{name: name, labels: labels}
	}
	return seriesHandle{registry: r, key: key}
}

func (h seriesHandle) update(fn func(v float64) float64) {
	h.registry.mu.Lock()
	defer h.registry.mu.Unlock()
	s := h.registry.series[h.key]
	s.value = fn(s.value)
}

// Flush sends every buffered series. Series whose value was never set are
// sent as 0 so dashboards see the run happened.
func (r *PushRegistry) Flush(ctx context.Context) error {
	req := &prompb.WriteRequest{Timeseries: r.timeSeries()}
	if len(req.Timeseries) == 0 {
		return nil
	}

	data, err := proto.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling write request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(snappy.Encode(nil, data)))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// timeSeries snapshots the buffer in a stable order.
func (r *PushRegistry) timeSeries() []prompb.TimeSeries {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]string, 0, len(r.series))
	for k := range r.series {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ts := r.now().UnixMilli()
	out := make([]prompb.TimeSeries, 0, len(keys))
	for _, k := range keys {
		s := r.series[k]
		out = append(out, prompb.TimeSeries{
			Labels:  r.labelsFor(s),
			Samples: []prompb.Sample{{Value: s.value, Timestamp: ts}},
		})
	}
	return out
}

func (r *PushRegistry) labelsFor(s *pushSeries) []prompb.Label {
	name := s.name
	if r.prefix != "" {
		name = r.prefix + "_" + name
	}
	labels := make([]prompb.Label, 0, len(s.labels)+3)
	labels = append(labels, prompb.Label{Name: "__name__", Value: name})
	if r.job != "" {
		labels = append(labels, prompb.Label{Name: "job", Value: r.job})
	}
	if r.instance != "" {
		labels = append(labels, prompb.Label{Name: "instance", Value: r.instance})
	}
	for _, k := range sortedLabelNames(s.labels) {
		labels = append(labels, prompb.Label{Name: k, Value: s.labels[k]})
	}
	return labels
}

func sortedLabelNames(labels prometheus.Labels) []string {
	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// seriesKey is stable regardless of map iteration order.
func seriesKey(name string, labels prometheus.Labels) string {
	var b strings.Builder
	b.WriteString(name)
	for _, k := range sortedLabelNames(labels) {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}

type pushGauge struct{ seriesHandle }

func (g pushGauge) Set(v float64) {
	g.update(func(float64) float64 { return v })
}

type pushCounter struct{ seriesHandle }

func (c pushCounter) Inc() { c.Add(1) }

func (c pushCounter) Add(v float64) {
	if v < 0 {
		panic("counter cannot decrease in value")
	}
	c.update(func(cur float64) float64 { return cur + v })
}

type pushGaugeVec struct {
	registry *PushRegistry
	name     string
}

func (g pushGaugeVec) With(labels prometheus.Labels) Gauge {
	return pushGauge{g.registry.seriesFor(g.name, labels)}
}

type pushCounterVec struct {
	registry *PushRegistry
	name     string
}

func (c pushCounterVec) With(labels prometheus.Labels) Counter {
	return pushCounter{c.registry.seriesFor(c.name, labels)}
}
