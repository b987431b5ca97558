package store

import (
	"testing"

	"github.com/dwsmith1983/xbp-monitoring/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	s := New()
	key := types.MonitorKey{Kind: types.KindProbe, Name: "homepage"}
	s.Set(key, types.RunResult{OK: true, DurationMS: 12})

	got, ok := s.Get(key)
	require.True(t, ok)
	assert.True(t, got.OK)
	assert.Equal(t, int64(12), got.DurationMS)
}

func TestGetMissing(t *testing.T) {
	s := New()
	_, ok := s.Get(types.MonitorKey{Kind: types.KindProbe, Name: "missing"})
	assert.False(t, ok)
}

func TestGetReturnsCloneNotSharedState(t *testing.T) {
	s := New()
	key := types.MonitorKey{Kind: types.KindProbe, Name: "homepage"}
	code := 200
	s.Set(key, types.RunResult{HTTPStatusCode: &code})

	got, _ := s.Get(key)
	*got.HTTPStatusCode = 500

	again, _ := s.Get(key)
	assert.Equal(t, 200, *again.HTTPStatusCode, "mutating a returned clone must not affect the stored result")
}

func TestAll(t *testing.T) {
	s := New()
	s.Set(types.MonitorKey{Kind: types.KindProbe, Name: "a"}, types.RunResult{OK: true})
	s.Set(types.MonitorKey{Kind: types.KindStory, Name: "b"}, types.RunResult{OK: false})

	all := s.All()
	assert.Len(t, all, 2)
}

func TestPruneRemovesKeysNotKept(t *testing.T) {
	s := New()
	keepKey := types.MonitorKey{Kind: types.KindProbe, Name: "keep"}
	dropKey := types.MonitorKey{Kind: types.KindProbe, Name: "drop"}
	s.Set(keepKey, types.RunResult{})
	s.Set(dropKey, types.RunResult{})

	s.Prune(map[types.MonitorKey]struct{}{keepKey: {}})

	_, ok := s.Get(keepKey)
	assert.True(t, ok)
	_, ok = s.Get(dropKey)
	assert.False(t, ok)
}
