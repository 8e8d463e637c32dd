package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/platinummonkey/protodoc/pkg/protobuf"
)

// MemoObserver is notified of every memo lookup
type MemoObserver interface {
	ObserveMemo(hit bool)
}

// ExtractMemo memoizes extraction results by content hash. The resolver
// and the renderer both extract every file of a batch, so the second pass
// is served from memory. Results are shared and must not be modified.
type ExtractMemo struct {
	cache    *lru.LRU[string, *protobuf.ExtractedInfos]
	metrics  *metrics
	observer MemoObserver
}

// NewExtractMemo creates an extraction memo. observer may be nil.
func NewExtractMemo(config *Config, observer MemoObserver) *ExtractMemo {
	if config == nil {
		config = DefaultConfig()
	}

	maxEntries := config.MaxEntries
	if maxEntries < 10 {
		maxEntries = 10
	}

	return &ExtractMemo{
		cache:    lru.NewLRU[string, *protobuf.ExtractedInfos](maxEntries, nil, config.TTL),
		metrics:  newMetrics(),
		observer: observer,
	}
}

// Extract returns the memoized model for content, extracting it on a miss
func (m *ExtractMemo) Extract(content []byte) *protobuf.ExtractedInfos {
	key := ContentKey(content)

	if infos, ok := m.cache.Get(key); ok {
		m.metrics.recordHit()
		m.observe(true)
		return infos
	}

	m.metrics.recordMiss()
	m.observe(false)

	infos := protobuf.Extract(string(content))
	m.cache.Add(key, infos)
	return infos
}

// Stats returns memo statistics
func (m *ExtractMemo) Stats() *Stats {
	stats := &Stats{
		Hits:      m.metrics.getHits(),
		Misses:    m.metrics.getMisses(),
		ItemCount: int64(m.cache.Len()),
	}

	total := stats.Hits + stats.Misses
	if total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}

// Purge drops every memoized entry
func (m *ExtractMemo) Purge() {
	m.cache.Purge()
}

func (m *ExtractMemo) observe(hit bool) {
	if m.observer != nil {
		m.observer.ObserveMemo(hit)
	}
}

// metrics tracks memo lookups
type metrics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

func newMetrics() *metrics {
	return &metrics{}
}

func (m *metrics) recordHit() {
	m.hits.Add(1)
}

func (m *metrics) recordMiss() {
	m.misses.Add(1)
}

func (m *metrics) getHits() int64 {
	return m.hits.Load()
}

func (m *metrics) getMisses() int64 {
	return m.misses.Load()
}
