// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

import (
	"github.com/forgechain/forged/metrics"
)

var (
	metricQueryOrderCounter = metrics.LazyLoadCounterVec("accountdb_query_order", []string{"order"})
	metricSortFieldCounter  = metrics.LazyLoadCounterVec("accountdb_query_sort_field", []string{"field"})
	metricOffsetBucket      = metrics.LazyLoadHistogram("accountdb_query_offset_bucket", []int64{
		0, 100, 1_000, 10_000, 100_000, 1_000_000,
	})
	metricLimitBucket = metrics.LazyLoadHistogram("accountdb_query_limit_bucket", []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
	metricTxCounter     = metrics.LazyLoadCounterVec("accountdb_tx_total", []string{"tag"})
	metricTxDepthBucket = metrics.LazyLoadHistogram("accountdb_tx_depth_bucket", []int64{0, 1, 2, 3, 5, 10})
)

func metricsHandleQuery(opts *Options) {
	if metrics.NoOp() {
		return
	}
	if opts == nil {
		return
	}
	if opts.SortBy != "" {
		metricSortFieldCounter().AddWithLabel(1, map[string]string{"field": opts.SortBy})
		if opts.Order == DESC {
			metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "desc"})
		} else {
			metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "asc"})
		}
	}
	offset := opts.Offset
	if offset > 1_000_000 {
		offset = 1_000_001
	}
	metricOffsetBucket().Observe(int64(offset))

	limit := opts.Limit
	if limit > 1000 {
		limit = 1001
	}
	metricLimitBucket().Observe(int64(limit))
}

func metricsHandleTx(tag string, depth int) {
	if metrics.NoOp() {
		return
	}
	metricTxCounter().AddWithLabel(1, map[string]string{"tag": tag})
	metricTxDepthBucket().Observe(int64(depth))
}
