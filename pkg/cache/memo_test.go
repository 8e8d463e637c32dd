package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	hits, misses int
}

func (o *recordingObserver) ObserveMemo(hit bool) {
	if hit {
		o.hits++
		return
	}
	o.misses++
}

func TestExtractMemo(t *testing.T) {
	observer := &recordingObserver{}
	memo := NewExtractMemo(&Config{MaxEntries: 16, TTL: time.Minute}, observer)

	content := []byte("package a; message M { string f = 1; }")

	first := memo.Extract(content)
	require.NotNil(t, first)
	assert.Equal(t, "a", first.Package)

	second := memo.Extract(content)
	assert.Same(t, first, second)

	other := memo.Extract([]byte("package b;"))
	assert.Equal(t, "b", other.Package)

	stats := memo.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(2), stats.ItemCount)
	assert.InDelta(t, 1.0/3.0, stats.HitRate, 0.0001)
	assert.Equal(t, 1, observer.hits)
	assert.Equal(t, 2, observer.misses)

	memo.Purge()
	assert.Equal(t, int64(0), memo.Stats().ItemCount)
}

func TestExtractMemo_Defaults(t *testing.T) {
	memo := NewExtractMemo(nil, nil)
	require.NotNil(t, memo)

	infos := memo.Extract([]byte("package x;"))
	assert.Equal(t, "x", infos.Package)
	assert.Equal(t, int64(1), memo.Stats().Misses)
}

func TestContentKey(t *testing.T) {
	assert.Equal(t, ContentKey([]byte("a")), ContentKey([]byte("a")))
	assert.NotEqual(t, ContentKey([]byte("a")), ContentKey([]byte("b")))
	assert.Len(t, ContentKey(nil), 64)
}
