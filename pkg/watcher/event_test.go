package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOp_String(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "modified", Modified.String())
	assert.Equal(t, "deleted", Deleted.String())
	assert.Equal(t, "unknown", Op(0).String())
}

func TestMerge(t *testing.T) {
	tests := []struct {
		pending, next, expected Op
	}{
		{Created, Modified, Created},
		{Created, Deleted, Deleted},
		{Modified, Modified, Modified},
		{Modified, Deleted, Deleted},
		{Deleted, Created, Modified},
		{Deleted, Modified, Modified},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, merge(tt.pending, tt.next), "%s then %s", tt.pending, tt.next)
	}
}

func TestQueue_Debounce(t *testing.T) {
	q := newQueue(100 * time.Millisecond)
	start := time.Unix(1000, 0)

	q.add("/p/b.proto", Created, start)
	q.add("/p/b.proto", Modified, start.Add(50*time.Millisecond))
	q.add("/p/a.proto", Modified, start.Add(20*time.Millisecond))

	assert.Empty(t, q.ready(start.Add(99*time.Millisecond)))

	events := q.ready(start.Add(120 * time.Millisecond))
	assert.Equal(t, []Event{{Path: "/p/a.proto", Op: Modified}}, events)
	assert.Equal(t, 1, q.len(), "b was touched again and is still settling")

	events = q.ready(start.Add(150 * time.Millisecond))
	assert.Equal(t, []Event{{Path: "/p/b.proto", Op: Created}}, events)
	assert.Equal(t, 0, q.len())
}

func TestQueue_ReadySortsByPath(t *testing.T) {
	q := newQueue(0)
	now := time.Now()
	q.add("/z.proto", Modified, now)
	q.add("/a.proto", Deleted, now)
	q.add("/m.proto", Created, now)

	assert.Equal(t, []Event{
		{Path: "/a.proto", Op: Deleted},
		{Path: "/m.proto", Op: Created},
		{Path: "/z.proto", Op: Modified},
	}, q.ready(now))
}
