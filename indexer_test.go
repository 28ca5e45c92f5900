package coords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexerPositions(t *testing.T) {
	cases := []struct {
		name   string
		ix     Indexer
		n      int
		expect []int
	}{
		{"full", FullIndexer(), 3, []int{0, 1, 2}},
		{"slice", SliceIndexer(1, 3), 5, []int{1, 2}},
		{"clamped", SliceIndexer(2, 10), 4, []int{2, 3}},
		{"negative", SliceIndexer(-2, 5), 5, []int{3, 4}},
		{"empty", SliceIndexer(0, 0), 5, nil},
		{"stride", StrideIndexer(2), 5, []int{0, 2, 4}},
		{"reverse", StrideIndexer(-1), 3, []int{2, 1, 0}},
		{"mask", MaskIndexer([]bool{true, false, true}), 3, []int{0, 2}},
		{"take", TakeIndexer([]int{2, 0}), 3, []int{2, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := c.ix.Positions(c.n)
			require.NoError(t, err)
			if len(c.expect) == 0 {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, c.expect, got)
			}
			assert.Equal(t, len(c.expect), c.ix.Len(c.n))
		})
	}

	_, err := TakeIndexer([]int{3}).Positions(3)
	assert.Error(t, err)
	_, err = MaskIndexer([]bool{true}).Positions(3)
	assert.Error(t, err)
}

func TestIndexerIsFull(t *testing.T) {
	assert.True(t, FullIndexer().IsFull(4))
	assert.True(t, SliceIndexer(0, 4).IsFull(4))
	assert.True(t, boundedSlice(0, 4, 4).IsFull(4))
	assert.True(t, MaskIndexer([]bool{true, true}).IsFull(2))
	assert.True(t, TakeIndexer([]int{0, 1}).IsFull(2))
	assert.False(t, StrideIndexer(-1).IsFull(2))
	assert.False(t, TakeIndexer([]int{1, 0}).IsFull(2))
	assert.False(t, SliceIndexer(1, 4).IsFull(4))
}

func TestIndexerString(t *testing.T) {
	assert.Equal(t, "slice(None, None)", FullIndexer().String())
	assert.Equal(t, "slice(50, None)", boundedSlice(50, 100, 100).String())
	assert.Equal(t, "slice(None, 10)", boundedSlice(0, 10, 100).String())
	assert.Equal(t, "slice(None, None, -1)", StrideIndexer(-1).String())
	assert.Equal(t, "mask(1 of 2)", MaskIndexer([]bool{true, false}).String())
	assert.Equal(t, "take(3)", TakeIndexer([]int{0, 1, 2}).String())
}

func TestIndexerEqual(t *testing.T) {
	assert.True(t, FullIndexer().Equal(StrideIndexer(1)))
	assert.True(t, boundedSlice(3, 1, 5).Equal(SliceIndexer(0, 0)))
	assert.False(t, SliceIndexer(0, 2).Equal(boundedSlice(0, 2, 5)))
	assert.False(t, MaskIndexer([]bool{true}).Equal(TakeIndexer([]int{0})))
	assert.True(t, TakeIndexer([]int{1, 2}).Equal(TakeIndexer([]int{1, 2})))

	start, ok := boundedSlice(2, 5, 5).Start()
	assert.True(t, ok)
	assert.Equal(t, 2, start)
	_, ok = boundedSlice(2, 5, 5).Stop()
	assert.False(t, ok)
}
