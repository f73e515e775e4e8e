package timestamp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNow(t *testing.T) {
	before := time.Now().UnixMilli()
	got := Now()
	after := time.Now().UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestNowMonotoneNonDecreasing(t *testing.T) {
	prev := Now()
	for i := 0; i < 100; i++ {
		next := Now()
		assert.GreaterOrEqual(t, next, prev)
		prev = next
	}
}
