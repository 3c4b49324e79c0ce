package typeset

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet_BasicOperations(t *testing.T) {
	t.Run("new set has no members", func(t *testing.T) {
		var s Set
		assert.False(t, s.Has(0))
		assert.True(t, s.IsEmpty())
	})

	t.Run("With sets the requested id without disturbing others", func(t *testing.T) {
		s := Of(2)
		s = s.With(5)
		assert.True(t, s.Has(2))
		assert.True(t, s.Has(5))
		assert.False(t, s.Has(3))
	})

	t.Run("Without clears a single id", func(t *testing.T) {
		s := Of(2, 5)
		s = s.Without(2)
		assert.False(t, s.Has(2))
		assert.True(t, s.Has(5))
	})

	t.Run("ids beyond the first word still work", func(t *testing.T) {
		s := Of(130)
		assert.True(t, s.Has(130))
		assert.False(t, s.Has(129))
		assert.Equal(t, 1, s.Count())
	})
}

func TestSet_HasAllHasAny(t *testing.T) {
	s := Of(1, 2, 3)

	assert.True(t, s.HasAll(1, 2))
	assert.False(t, s.HasAll(1, 4))
	assert.True(t, s.HasAny(4, 3))
	assert.False(t, s.HasAny(4, 5))
}

func TestSet_BooleanAlgebra(t *testing.T) {
	a := Of(1, 2, 3)
	b := Of(2, 3, 4)

	assert.Equal(t, Of(2, 3), a.And(b))
	assert.Equal(t, Of(1, 2, 3, 4), a.Or(b))
	assert.True(t, a.Intersects(b))
	assert.False(t, Of(1).Intersects(Of(2)))
}

func TestSet_SubsetSuperset(t *testing.T) {
	t.Run("empty set is a subset of everything", func(t *testing.T) {
		assert.True(t, Of().IsSubsetOf(Of(1, 2)))
	})

	t.Run("subset/superset are symmetric", func(t *testing.T) {
		small := Of(1, 2)
		big := Of(1, 2, 3)

		assert.True(t, small.IsSubsetOf(big))
		assert.False(t, big.IsSubsetOf(small))
		assert.True(t, big.IsSupersetOf(small))
	})

	t.Run("disjoint sets are not subsets of one another", func(t *testing.T) {
		assert.False(t, Of(1).IsSubsetOf(Of(2)))
	})

	t.Run("a set is always a subset and superset of itself", func(t *testing.T) {
		s := Of(4, 9, 16)
		assert.True(t, s.IsSubsetOf(s))
		assert.True(t, s.IsSupersetOf(s))
	})
}

func TestSet_Equals(t *testing.T) {
	assert.True(t, Of(1, 2).Equals(Of(2, 1)))
	assert.False(t, Of(1, 2).Equals(Of(1, 2, 3)))
	assert.True(t, Of().Equals(Set{}))
}

func TestSet_Ids(t *testing.T) {
	s := Of(64, 0, 5, 1)
	assert.Equal(t, []int{0, 1, 5, 64}, s.Ids())
}

func TestSet_String(t *testing.T) {
	assert.Equal(t, "[1 2]", Of(1, 2).String())
}
