package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNavigatorOpensOnLatestDay(t *testing.T) {
	n := NewNavigator(7)
	assert.Equal(t, 7, n.Day())
	assert.Equal(t, 7, n.Max())
	assert.False(t, n.CanNext())
	assert.True(t, n.CanPrevious())
}

func TestNavigatorNoOpAtBounds(t *testing.T) {
	n := NewNavigator(2)
	assert.False(t, n.SelectNext(), "next at max is a no-op")
	assert.Equal(t, 2, n.Day())

	assert.True(t, n.SelectPrevious())
	assert.Equal(t, 1, n.Day())
	assert.False(t, n.CanPrevious())
	assert.False(t, n.SelectPrevious(), "previous at day 1 is a no-op")
	assert.Equal(t, 1, n.Day())
}

func TestNavigatorRoundTrip(t *testing.T) {
	n := NewNavigator(10)
	n.SelectPrevious()
	n.SelectPrevious()
	start := n.Day()
	for i := 0; i < 5; i++ {
		n.SelectPrevious()
		n.SelectNext()
		assert.Equal(t, start, n.Day())
	}
}

func TestNavigatorEmpty(t *testing.T) {
	for _, max := range []int{0, -3} {
		n := NewNavigator(max)
		assert.Equal(t, 0, n.Day())
		assert.False(t, n.CanPrevious())
		assert.False(t, n.CanNext())
		assert.False(t, n.SelectNext())
		assert.False(t, n.SelectPrevious())
	}
}

func TestNavigatorSingleDay(t *testing.T) {
	n := NewNavigator(1)
	assert.Equal(t, 1, n.Day())
	assert.False(t, n.CanPrevious())
	assert.False(t, n.CanNext())
}
