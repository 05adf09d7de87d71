package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	recordsReceivedTotal   atomic.Uint64
	recordsFailedTotal     atomic.Uint64
	itemsLoadedTotal       atomic.Uint64
	collectionsFailedTotal atomic.Uint64

	loadDuration = newHistogram([]float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000})
)

// AddRecordsReceived adds to the received-records counter.
func AddRecordsReceived(n int) {
	if n > 0 {
		recordsReceivedTotal.Add(uint64(n))
	}
}

// IncRecordsFailed increments the failed-records counter.
func IncRecordsFailed() {
	recordsFailedTotal.Add(1)
}

// AddItemsLoaded adds to the loaded-items counter.
func AddItemsLoaded(n int) {
	if n > 0 {
		itemsLoadedTotal.Add(uint64(n))
	}
}

// IncCollectionsFailed increments the failed-collection-loads counter.
func IncCollectionsFailed() {
	collectionsFailedTotal.Add(1)
}

// ObserveLoadDurationMs records one collection load duration in milliseconds.
func ObserveLoadDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	loadDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "ingest_records_received_total", "Total queue records received", recordsReceivedTotal.Load())
	writeCounter(&buf, "ingest_records_failed_total", "Total queue records that failed decode or validation", recordsFailedTotal.Load())
	writeCounter(&buf, "ingest_items_loaded_total", "Total catalog items upserted", itemsLoadedTotal.Load())
	writeCounter(&buf, "ingest_collections_failed_total", "Total collection batch loads that failed", collectionsFailedTotal.Load())
	writeHistogram(&buf, "ingest_load_duration_ms", "Collection batch load duration in milliseconds", loadDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
