// Package observe provides OpenTelemetry metrics for the player. Without a
// configured provider the global no-op meter is used, so recording is
// always safe.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all metrics.
const meterName = "github.com/jorabin/sounds"

// Metrics holds the player's metric instruments. All fields are safe for
// concurrent use.
type Metrics struct {
	// Enqueued counts enqueue attempts. Attribute "result" is accepted or refused.
	Enqueued metric.Int64Counter

	// Transitions counts work item status changes. Attribute "status".
	Transitions metric.Int64Counter

	// QueueDepth tracks items waiting in the queue.
	QueueDepth metric.Int64UpDownCounter

	// SectionDuration records how long each section played. Attribute
	// "completed" is true or false.
	SectionDuration metric.Float64Histogram

	// RendererErrors counts sections aborted by a renderer failure or panic.
	RendererErrors metric.Int64Counter
}

// sectionBuckets are histogram boundaries in seconds for section lengths.
var sectionBuckets = []float64{
	0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Enqueued, err = m.Int64Counter("sounds.queue.enqueued",
		metric.WithDescription("Enqueue attempts by result."),
	); err != nil {
		return nil, err
	}
	if met.Transitions, err = m.Int64Counter("sounds.item.transitions",
		metric.WithDescription("Work item status changes by status."),
	); err != nil {
		return nil, err
	}
	if met.QueueDepth, err = m.Int64UpDownCounter("sounds.queue.depth",
		metric.WithDescription("Items waiting in the playback queue."),
	); err != nil {
		return nil, err
	}
	if met.SectionDuration, err = m.Float64Histogram("sounds.section.duration",
		metric.WithDescription("Time spent playing each section."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(sectionBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RendererErrors, err = m.Int64Counter("sounds.renderer.errors",
		metric.WithDescription("Sections aborted by a renderer failure."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns a shared instance built on otel.GetMeterProvider.
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

// RecordEnqueue counts one enqueue attempt and, when accepted, grows the
// queue depth.
func (m *Metrics) RecordEnqueue(ctx context.Context, accepted bool) {
	result := "refused"
	if accepted {
		result = "accepted"
		m.QueueDepth.Add(ctx, 1)
	}
	m.Enqueued.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordDequeue shrinks the queue depth by n.
func (m *Metrics) RecordDequeue(ctx context.Context, n int) {
	if n > 0 {
		m.QueueDepth.Add(ctx, -int64(n))
	}
}

// RecordTransition counts a status change.
func (m *Metrics) RecordTransition(ctx context.Context, status string) {
	m.Transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// RecordSection records a played section.
func (m *Metrics) RecordSection(ctx context.Context, d time.Duration, completed bool) {
	m.SectionDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.Bool("completed", completed)))
}

// RecordRendererError counts a renderer failure.
func (m *Metrics) RecordRendererError(ctx context.Context) {
	m.RendererErrors.Add(ctx, 1)
}
