package otel

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/tokenAuth"
	"github.com/MrEthical07/tokenAuth/metrics/export/internaldefs"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

// Source is satisfied by *tokenAuth.Engine.
type Source interface {
	MetricsSnapshot() tokenAuth.MetricsSnapshot
	AuditDropped() uint64
}

type histogramInstruments struct {
	id      tokenAuth.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

// Exporter owns one callback registration on the meter.
type Exporter struct {
	source       Source
	counters     map[tokenAuth.MetricID]metric.Int64ObservableCounter
	histograms   []histogramInstruments
	auditDropped metric.Int64ObservableCounter
	bucketAttrs  [8]metric.ObserveOption
	registration metric.Registration
}

// New creates the instruments and registers the collection callback.
func New(meter metric.Meter, source Source) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:   source,
		counters: make(map[tokenAuth.MetricID]metric.Int64ObservableCounter, len(internaldefs.Counters)),
	}
	for i, le := range internaldefs.Bounds {
		e.bucketAttrs[i] = metric.WithAttributes(attribute.String("le", le))
	}

	var observables []metric.Observable
	for _, d := range internaldefs.Counters {
		c, err := meter.Int64ObservableCounter(d.Name, metric.WithDescription(d.Help))
		if err != nil {
			return nil, fmt.Errorf("counter %s: %w", d.Name, err)
		}
		e.counters[d.ID] = c
		observables = append(observables, c)
	}

	for _, d := range internaldefs.Histograms {
		buckets, err := meter.Int64ObservableGauge(d.Name+"_bucket", metric.WithDescription(d.Help))
		if err != nil {
			return nil, fmt.Errorf("gauge %s_bucket: %w", d.Name, err)
		}
		count, err := meter.Int64ObservableGauge(d.Name+"_count", metric.WithDescription(d.Help))
		if err != nil {
			return nil, fmt.Errorf("gauge %s_count: %w", d.Name, err)
		}
		e.histograms = append(e.histograms, histogramInstruments{id: d.ID, buckets: buckets, count: count})
		observables = append(observables, buckets, count)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDropped.Name, metric.WithDescription(internaldefs.AuditDropped.Help))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", internaldefs.AuditDropped.Name, err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snap := e.source.MetricsSnapshot()
	for id, c := range e.counters {
		o.ObserveInt64(c, int64(snap.Counters[id]))
	}
	for _, h := range e.histograms {
		raw, ok := snap.Histograms[h.id]
		if !ok {
			continue
		}
		cumulative := internaldefs.Cumulative(raw)
		for i, v := range cumulative {
			o.ObserveInt64(h.buckets, int64(v), e.bucketAttrs[i])
		}
		o.ObserveInt64(h.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

// Close unregisters the callback.
func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
