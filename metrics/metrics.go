// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics is a singleton registry of meters. It defaults to a no-op
// implementation; InitializePrometheusMetrics switches it to prometheus.
package metrics

import (
	"net/http"
	"sync"
)

var service Service = noopService{}

// Service is what a metrics backend implements.
type Service interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter
	GetOrCreateHandler() http.Handler
}

// NoOp reports whether metrics collection is disabled. Callers may use it
// to skip building label maps on hot paths.
func NoOp() bool {
	_, isNoop := service.(noopService)
	return isNoop
}

// HTTPHandler returns the handler exposing collected metrics, nil when no-op.
func HTTPHandler() http.Handler {
	return service.GetOrCreateHandler()
}

// CountMeter is a monotonically increasing counter.
type CountMeter interface {
	Add(int64)
}

// Counter returns the named counter, creating it on first use.
func Counter(name string) CountMeter { return service.GetOrCreateCountMeter(name) }

// CountVecMeter is a counter partitioned by labels.
type CountVecMeter interface {
	AddWithLabel(int64, map[string]string)
}

// CounterVec returns the named labeled counter, creating it on first use.
func CounterVec(name string, labels []string) CountVecMeter {
	return service.GetOrCreateCountVecMeter(name, labels)
}

// GaugeMeter is a value that can go up and down.
type GaugeMeter interface {
	Add(int64)
	Set(int64)
}

// Gauge returns the named gauge, creating it on first use.
func Gauge(name string) GaugeMeter { return service.GetOrCreateGaugeMeter(name) }

// HistogramMeter aggregates reported measurements into buckets.
type HistogramMeter interface {
	Observe(int64)
}

// Histogram returns the named histogram, creating it on first use.
func Histogram(name string, buckets []int64) HistogramMeter {
	return service.GetOrCreateHistogramMeter(name, buckets)
}

// LazyLoad defers meter creation to first use, so package-level meter
// variables do not register anything when metrics stay disabled.
func LazyLoad[T any](f func() T) func() T {
	var (
		once sync.Once
		v    T
	)
	return func() T {
		once.Do(func() { v = f() })
		return v
	}
}

// LazyLoadCounter lazily creates the named counter.
func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

// LazyLoadCounterVec lazily creates the named labeled counter.
func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

// LazyLoadGauge lazily creates the named gauge.
func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

// LazyLoadHistogram lazily creates the named histogram.
func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return LazyLoad(func() HistogramMeter { return Histogram(name, buckets) })
}

type noopService struct{}

type noopMeter struct{}

func (noopMeter) Add(int64)                             {}
func (noopMeter) Set(int64)                             {}
func (noopMeter) Observe(int64)                         {}
func (noopMeter) AddWithLabel(int64, map[string]string) {}

func (noopService) GetOrCreateCountMeter(string) CountMeter { return noopMeter{} }
func (noopService) GetOrCreateCountVecMeter(string, []string) CountVecMeter {
	return noopMeter{}
}
func (noopService) GetOrCreateGaugeMeter(string) GaugeMeter { return noopMeter{} }
func (noopService) GetOrCreateHistogramMeter(string, []int64) HistogramMeter {
	return noopMeter{}
}
func (noopService) GetOrCreateHandler() http.Handler { return nil }
