package skiplist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berylyvos/pmidx/flush"
)

func TestGraft_AdoptsFullRangeOfSource(t *testing.T) {
	source, _ := newTestList()
	first := source.Insert([]byte("a"), []byte("1"))
	source.Insert([]byte("b"), []byte("2"))
	last := source.Insert([]byte("c"), []byte("3"))

	grafted, err := Graft(ByteCompare, &flush.Recorder{}, source, first, last)
	assert.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, collectKeys(grafted))

	_, ok := source.Find([]byte("a"))
	assert.False(t, ok, "grafted range must be detached from source")
}

func TestGraft_PartialRangeLeavesRestInSource(t *testing.T) {
	source, _ := newTestList()
	source.Insert([]byte("a"), []byte("1"))
	first := source.Insert([]byte("b"), []byte("2"))
	last := source.Insert([]byte("c"), []byte("3"))
	source.Insert([]byte("d"), []byte("4"))

	grafted, err := Graft(ByteCompare, &flush.Recorder{}, source, first, last)
	assert.NoError(t, err)

	assert.Equal(t, []string{"b", "c"}, collectKeys(grafted))
	assert.Equal(t, []string{"a", "d"}, collectKeys(source))
}

func TestGraft_InvalidRangeRejected(t *testing.T) {
	source, _ := newTestList()
	b := source.Insert([]byte("b"), []byte("2"))
	a := source.Insert([]byte("a"), []byte("1"))

	_, err := Graft(ByteCompare, &flush.Recorder{}, source, b, a)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestGraft_FindWorksAfterAdoption(t *testing.T) {
	source, _ := newTestList()
	first := source.Insert([]byte("k1"), []byte("v1"))
	last := source.Insert([]byte("k2"), []byte("v2"))

	grafted, err := Graft(ByteCompare, &flush.Recorder{}, source, first, last)
	assert.NoError(t, err)

	ref, ok := grafted.Find([]byte("k2"))
	assert.True(t, ok)
	assert.Equal(t, "v2", string(grafted.Value(ref)))
}
