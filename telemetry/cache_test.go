package telemetry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeCacheColdStart(t *testing.T) {
	cache := NewChangeCache()

	// First sighting of any key always publishes
	assert.True(t, cache.ShouldPublish("office-pc/enabled", "true"))
	assert.Equal(t, 1, cache.Size())
}

func TestChangeCacheSuppression(t *testing.T) {
	cache := NewChangeCache()

	assert.True(t, cache.ShouldPublish("office-pc/enabled", "true"))
	assert.False(t, cache.ShouldPublish("office-pc/enabled", "true"))
	assert.False(t, cache.ShouldPublish("office-pc/enabled", "true"))

	// A changed value publishes, then suppresses again
	assert.True(t, cache.ShouldPublish("office-pc/enabled", "false"))
	assert.False(t, cache.ShouldPublish("office-pc/enabled", "false"))
}

func TestChangeCacheIndependentKeys(t *testing.T) {
	cache := NewChangeCache()

	assert.True(t, cache.ShouldPublish("office-pc/enabled", "true"))
	assert.True(t, cache.ShouldPublish("office-pc/proto", `"tcp"`))
	assert.True(t, cache.ShouldPublish("nas/enabled", "true"))

	// One key changing does not disturb the others
	assert.True(t, cache.ShouldPublish("office-pc/proto", `"udp"`))
	assert.False(t, cache.ShouldPublish("office-pc/enabled", "true"))
	assert.False(t, cache.ShouldPublish("nas/enabled", "true"))

	assert.ElementsMatch(t,
		[]string{"office-pc/enabled", "office-pc/proto", "nas/enabled"},
		cache.Keys())
}

func TestChangeCacheNeverEvicts(t *testing.T) {
	cache := NewChangeCache()

	for i := 0; i < 1000; i++ {
		cache.ShouldPublish(fmt.Sprintf("rule-%d/enabled", i), "true")
	}
	assert.Equal(t, 1000, cache.Size())

	// Every entry is still live
	for i := 0; i < 1000; i++ {
		assert.False(t, cache.ShouldPublish(fmt.Sprintf("rule-%d/enabled", i), "true"))
	}
}

func TestChangeCacheReset(t *testing.T) {
	cache := NewChangeCache()
	cache.ShouldPublish("office-pc/enabled", "true")
	cache.Reset()

	assert.Equal(t, 0, cache.Size())
	assert.True(t, cache.ShouldPublish("office-pc/enabled", "true"))
}

func TestChangeCacheConcurrent(t *testing.T) {
	cache := NewChangeCache()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				cache.ShouldPublish(fmt.Sprintf("g%d/k%d", g, i), "v")
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 800, cache.Size())
}
