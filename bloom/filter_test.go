package bloom_test

import (
	"fmt"
	"testing"

	"github.com/akarwowski/docdex/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.False(t, f.Test("fp-1"))

	f.Add("fp-1")

	assert.True(t, f.Test("fp-1"))
	assert.False(t, f.Test("fp-2"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.Equal(t, uint(0), f.EstimatedCount())

	for i := 0; i < 100; i++ {
		f.Add(fmt.Sprintf("fp-%d", i))
	}

	count := f.EstimatedCount()
	assert.InDelta(t, 100, count, 10)
}

func TestFilter_NoFalseNegatives(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(10000, 0.01)

	for i := 0; i < 1000; i++ {
		f.Add(fmt.Sprintf("fp-%d", i))
	}
	for i := 0; i < 1000; i++ {
		assert.True(t, f.Test(fmt.Sprintf("fp-%d", i)))
	}
}
