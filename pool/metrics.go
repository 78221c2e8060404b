package pool

import (
	"context"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/jirevwe/litepool/pool"

	metricWorkersLive  = "litepool.workers.live"
	metricJobsStarted  = "litepool.jobs.started"
	metricJobsFinished = "litepool.jobs.finished"
	metricJobsPanicked = "litepool.jobs.panicked"
	metricJobDuration  = "litepool.job.duration"

	attrPool   = "pool"
	attrWorker = "worker"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}

// Metrics is an Observer that records worker and job activity as
// OpenTelemetry instruments.
type Metrics struct {
	pool         string
	workersLive  metric.Int64UpDownCounter
	jobsStarted  metric.Int64Counter
	jobsFinished metric.Int64Counter
	jobsPanicked metric.Int64Counter
	jobDuration  metric.Float64Histogram
}

var _ Observer = (*Metrics)(nil)

// NewMetrics creates the instruments on mp. poolName is attached to every
// measurement. A nil mp uses the global provider.
func NewMetrics(mp metric.MeterProvider, poolName string) (*Metrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	m := &Metrics{pool: poolName}

	var err error
	if m.workersLive, err = meter.Int64UpDownCounter(metricWorkersLive,
		metric.WithDescription("workers currently running"), metric.WithUnit("{worker}")); err != nil {
		return nil, err
	}
	if m.jobsStarted, err = meter.Int64Counter(metricJobsStarted,
		metric.WithDescription("tasks taken off the queue"), metric.WithUnit("{job}")); err != nil {
		return nil, err
	}
	if m.jobsFinished, err = meter.Int64Counter(metricJobsFinished,
		metric.WithDescription("tasks that ran to completion"), metric.WithUnit("{job}")); err != nil {
		return nil, err
	}
	if m.jobsPanicked, err = meter.Int64Counter(metricJobsPanicked,
		metric.WithDescription("tasks that panicked"), metric.WithUnit("{job}")); err != nil {
		return nil, err
	}
	if m.jobDuration, err = meter.Float64Histogram(metricJobDuration,
		metric.WithDescription("task run time"), metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBuckets...)); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Metrics) attrs(id int) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String(attrPool, m.pool),
		attribute.String(attrWorker, strconv.Itoa(id)),
	)
}

func (m *Metrics) WorkerStarted(id int) {
	m.workersLive.Add(context.Background(), 1, metric.WithAttributes(attribute.String(attrPool, m.pool)))
}

func (m *Metrics) JobStarted(id int) {
	m.jobsStarted.Add(context.Background(), 1, m.attrs(id))
}

func (m *Metrics) JobFinished(id int, elapsed time.Duration) {
	ctx := context.Background()
	m.jobsFinished.Add(ctx, 1, m.attrs(id))
	m.jobDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String(attrPool, m.pool)))
}

func (m *Metrics) JobPanicked(id int, _ any, _ []byte) {
	m.jobsPanicked.Add(context.Background(), 1, m.attrs(id))
}

func (m *Metrics) WorkerStopped(id int) {
	m.workersLive.Add(context.Background(), -1, metric.WithAttributes(attribute.String(attrPool, m.pool)))
}
