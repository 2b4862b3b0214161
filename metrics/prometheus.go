// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"sync"

	"github.com/inconshreveable/log15"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "forged_metrics"

var log = log15.New("pkg", "metrics")

// InitializePrometheusMetrics switches the package to the prometheus
// backend. Repeated calls are no-ops; a backend is never reset.
func InitializePrometheusMetrics() {
	if _, ok := service.(*prometheusService); !ok {
		service = &prometheusService{}
	}
}

type prometheusService struct {
	counters    sync.Map
	counterVecs sync.Map
	gauges      sync.Map
	histograms  sync.Map
}

func (p *prometheusService) GetOrCreateHandler() http.Handler {
	return promhttp.Handler()
}

func (p *prometheusService) GetOrCreateCountMeter(name string) CountMeter {
	if m, ok := p.counters.Load(name); ok {
		return m.(CountMeter)
	}
	meter := p.newCountMeter(name)
	p.counters.Store(name, meter)
	return meter
}

func (p *prometheusService) GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter {
	if m, ok := p.counterVecs.Load(name); ok {
		return m.(CountVecMeter)
	}
	meter := p.newCountVecMeter(name, labels)
	p.counterVecs.Store(name, meter)
	return meter
}

func (p *prometheusService) GetOrCreateGaugeMeter(name string) GaugeMeter {
	if m, ok := p.gauges.Load(name); ok {
		return m.(GaugeMeter)
	}
	meter := p.newGaugeMeter(name)
	p.gauges.Store(name, meter)
	return meter
}

func (p *prometheusService) GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter {
	if m, ok := p.histograms.Load(name); ok {
		return m.(HistogramMeter)
	}
	meter := p.newHistogramMeter(name, buckets)
	p.histograms.Store(name, meter)
	return meter
}

func (p *prometheusService) newCountMeter(name string) CountMeter {
	meter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(meter); err != nil {
		log.Warn("unable to register metric", "name", name, "err", err)
	}
	return &promCountMeter{counter: meter}
}

func (p *prometheusService) newCountVecMeter(name string, labels []string) CountVecMeter {
	meter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
	}, labels)
	if err := prometheus.Register(meter); err != nil {
		log.Warn("unable to register metric", "name", name, "err", err)
	}
	return &promCountVecMeter{counter: meter}
}

func (p *prometheusService) newGaugeMeter(name string) GaugeMeter {
	meter := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
	})
	if err := prometheus.Register(meter); err != nil {
		log.Warn("unable to register metric", "name", name, "err", err)
	}
	return &promGaugeMeter{gauge: meter}
}

func (p *prometheusService) newHistogramMeter(name string, buckets []int64) HistogramMeter {
	floatBuckets := make([]float64, 0, len(buckets))
	for _, b := range buckets {
		floatBuckets = append(floatBuckets, float64(b))
	}
	meter := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Buckets:   floatBuckets,
	})
	if err := prometheus.Register(meter); err != nil {
		log.Warn("unable to register metric", "name", name, "err", err)
	}
	return &promHistogramMeter{histogram: meter}
}

type promCountMeter struct {
	counter prometheus.Counter
}

func (c *promCountMeter) Add(i int64) {
	c.counter.Add(float64(i))
}

type promCountVecMeter struct {
	counter *prometheus.CounterVec
}

func (c *promCountVecMeter) AddWithLabel(i int64, labels map[string]string) {
	c.counter.With(labels).Add(float64(i))
}

type promGaugeMeter struct {
	gauge prometheus.Gauge
}

func (g *promGaugeMeter) Add(i int64) {
	g.gauge.Add(float64(i))
}

func (g *promGaugeMeter) Set(i int64) {
	g.gauge.Set(float64(i))
}

type promHistogramMeter struct {
	histogram prometheus.Histogram
}

func (h *promHistogramMeter) Observe(i int64) {
	h.histogram.Observe(float64(i))
}
