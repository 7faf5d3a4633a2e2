// Package observe records webreader metrics through the OpenTelemetry
// metrics API. InitProvider bridges them to Prometheus for /metrics.
//
// Tests should build their own instance with NewMetrics and a ManualReader
// instead of using DefaultMetrics.
package observe

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/hyperifyio/webreader"

// Metrics holds the metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	// Extractions counts extraction attempts by mode and status.
	Extractions metric.Int64Counter
	// Sessions counts started playback sessions by language.
	Sessions metric.Int64Counter
	// Utterances counts spoken chunks by status.
	Utterances metric.Int64Counter
	// UtteranceDuration tracks how long each chunk took to speak.
	UtteranceDuration metric.Float64Histogram
	// HTTPRequestDuration tracks control API latency by method, path and
	// status code.
	HTTPRequestDuration metric.Float64Histogram
}

var utteranceBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Extractions, err = m.Int64Counter("webreader.extractions",
		metric.WithDescription("Extraction attempts by mode and status."),
	); err != nil {
		return nil, err
	}
	if met.Sessions, err = m.Int64Counter("webreader.sessions",
		metric.WithDescription("Playback sessions started by language."),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("webreader.utterances",
		metric.WithDescription("Utterances spoken by status."),
	); err != nil {
		return nil, err
	}
	if met.UtteranceDuration, err = m.Float64Histogram("webreader.utterance.duration",
		metric.WithDescription("Time to speak one utterance."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(utteranceBuckets...),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("webreader.http.request.duration",
		metric.WithDescription("Control API request latency by method, path and status."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a package-level instance built on the global
// meter provider. Call InitProvider first so it is exported.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordExtraction counts one extraction attempt.
func (m *Metrics) RecordExtraction(ctx context.Context, mode string, err error) {
	if m == nil {
		return
	}
	m.Extractions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("status", status(err)),
	))
}

// RecordSession counts one started session.
func (m *Metrics) RecordSession(ctx context.Context, lang string) {
	if m == nil {
		return
	}
	m.Sessions.Add(ctx, 1, metric.WithAttributes(attribute.String("lang", lang)))
}

// RecordUtterance counts one utterance and its duration.
func (m *Metrics) RecordUtterance(ctx context.Context, d time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status(err)))
	m.Utterances.Add(ctx, 1, attrs)
	m.UtteranceDuration.Record(ctx, d.Seconds(), attrs)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// Hijack passes connection takeover through for websocket upgrades.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("observe: response writer does not support hijacking")
	}
	return h.Hijack()
}

// Middleware records the duration of every request.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)
			m.HTTPRequestDuration.Record(r.Context(), time.Since(start).Seconds(),
				metric.WithAttributes(
					attribute.String("method", r.Method),
					attribute.String("path", r.URL.Path),
					attribute.String("status", strconv.Itoa(rec.statusCode)),
				),
			)
		})
	}
}
