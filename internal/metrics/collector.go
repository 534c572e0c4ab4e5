// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// 阶段指标
	stageDuration   *prometheus.HistogramVec
	topicsProcessed prometheus.Counter
	questionsCached prometheus.Counter

	// 语义扫描指标
	semanticScanSize prometheus.Histogram

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 缓存指标
	c.cacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits by source",
		},
		[]string{"source"},
	)

	c.cacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of unmet cache quota slots",
		},
		[]string{"subject"},
	)

	// 阶段指标
	c.stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cache_stage_duration_seconds",
			Help:      "Duration of the cache stage per request",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"subject"},
	)

	c.topicsProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_topics_processed_total",
			Help:      "Total number of topics processed by the cache stage",
		},
	)

	c.questionsCached = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_questions_served_total",
			Help:      "Total number of questions served from cache",
		},
	)

	// 语义扫描指标
	c.semanticScanSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "semantic_scan_entries",
			Help:      "Number of entries scanned per semantic lookup",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000},
		},
	)

	c.logger.Debug("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// RecordCacheHit 记录缓存命中题数
func (c *Collector) RecordCacheHit(source string, count int) {
	if count <= 0 {
		return
	}
	c.cacheHits.WithLabelValues(source).Add(float64(count))
	c.questionsCached.Add(float64(count))
}

// RecordCacheMisses 记录未被缓存满足的配额数
func (c *Collector) RecordCacheMisses(subject string, count int) {
	if count <= 0 {
		return
	}
	c.cacheMisses.WithLabelValues(subject).Add(float64(count))
}

// RecordTopicProcessed 记录一个已处理主题
func (c *Collector) RecordTopicProcessed() {
	c.topicsProcessed.Inc()
}

// ObserveStageDuration 记录缓存阶段耗时
func (c *Collector) ObserveStageDuration(subject string, d time.Duration) {
	c.stageDuration.WithLabelValues(subject).Observe(d.Seconds())
}

// ObserveSemanticScan 记录一次语义扫描的条目数
func (c *Collector) ObserveSemanticScan(entries int) {
	c.semanticScanSize.Observe(float64(entries))
}
