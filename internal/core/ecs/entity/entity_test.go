package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake_PacksIndexAndVersion(t *testing.T) {
	e := Make(5, 7)
	assert.Equal(t, uint32(5), e.Index())
	assert.Equal(t, uint32(7), e.Version())
}

func TestMake_MasksOutOfRangeFields(t *testing.T) {
	e := Make(indexMask+3, versionMask+2)
	assert.Equal(t, uint32(2), e.Index(), "index field wraps modulo IndexBits")
	assert.Equal(t, uint32(1), e.Version(), "version field wraps modulo VersionBits")
}

func TestNull_IsAllOnesIndex(t *testing.T) {
	assert.Equal(t, uint32(indexMask), Null.Index())
}

func TestTombstone_HasMaxVersion(t *testing.T) {
	assert.Equal(t, uint32(MaxVersion), Tombstone.Version())
	assert.Equal(t, uint32(0), Tombstone.Index())
}

func TestNextVersion_IncrementsByOne(t *testing.T) {
	assert.Equal(t, uint32(1), NextVersion(0))
	assert.Equal(t, uint32(8), NextVersion(7))
}

func TestNextVersion_SkipsTombstoneOnWrap(t *testing.T) {
	got := NextVersion(MaxVersion - 1)
	assert.Equal(t, uint32(0), got, "wrapping onto the tombstone version resumes from 0")
	assert.NotEqual(t, uint32(MaxVersion), got)
}

func TestEntity_String(t *testing.T) {
	assert.Equal(t, "entity(5/7)", Make(5, 7).String())
	assert.Equal(t, "entity(null)", Null.String())
}
