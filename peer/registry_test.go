package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryFallbackStaticFirstDeduplicated(t *testing.T) {
	dir := t.TempDir()
	static := []Endpoint{"1.2.3.4:12038", "5.6.7.8:12038"}
	r := NewRegistry(nil, static, dir, nil)

	// Simulate a learned peer that duplicates a static entry plus one new.
	r.learned.Add(Endpoint("5.6.7.8:12038"), int64(0))
	r.learned.Add(Endpoint("9.9.9.9:12038"), int64(0))

	got := r.GetFallback()
	assert.Equal(t, []Endpoint{"1.2.3.4:12038", "5.6.7.8:12038", "9.9.9.9:12038"}, got)
}

func TestRegistryPersistAndReload(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(nil, nil, dir, nil)
	r.mu.Lock()
	r.learned.Add(Endpoint("1.1.1.1:12038"), int64(0))
	err := r.saveLocked()
	r.mu.Unlock()
	assert.NoError(t, err)

	r2 := NewRegistry(nil, nil, dir, nil)
	fallback := r2.GetFallback()
	assert.Contains(t, fallback, Endpoint("1.1.1.1:12038"))
}

func TestRegistryLearnedSetBounded(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(nil, nil, dir, nil)
	for i := 0; i < MaxLearnedPeers+5; i++ {
		r.learned.Add(Endpoint(string(rune('a'+i))), int64(i))
	}
	assert.LessOrEqual(t, r.learned.Len(), MaxLearnedPeers)
}
