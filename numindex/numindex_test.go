package numindex

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berylyvos/pmidx/flush"
	"github.com/berylyvos/pmidx/indexmeta"
)

func newTestIndex() (*NumericIndex, *flush.Recorder) {
	rec := &flush.Recorder{}
	return New(NewDelegate(), rec, 8), rec
}

func TestParseUint32_StopsAtFirstNonDigit(t *testing.T) {
	assert.Equal(t, uint32(1234), ParseUint32([]byte("1234")))
	assert.Equal(t, uint32(12), ParseUint32([]byte("12ab")))
	assert.Equal(t, uint32(0), ParseUint32([]byte("ab12")))
}

func TestNumericIndex_GetMiss(t *testing.T) {
	idx, _ := newTestIndex()

	_, ok := idx.Get([]byte("7"))
	assert.False(t, ok)
}

func TestNumericIndex_InsertThenGet(t *testing.T) {
	idx, rec := newTestIndex()

	idx.Insert(7, indexmeta.Handle{FileNumber: 1, Offset: 10, Size: 20})

	v, ok := idx.Get([]byte("7"))
	assert.True(t, ok)
	assert.Equal(t, uint32(1), v.FileNumber)
	assert.Equal(t, int64(10), v.Offset)
	assert.Equal(t, uint32(20), v.Size)

	assert.Equal(t, 2, rec.Count(), "meta then key must each be flushed once")
}

func TestNumericIndex_GetPopulatesCache(t *testing.T) {
	idx, _ := newTestIndex()
	idx.Insert(7, indexmeta.Handle{FileNumber: 1})

	_, ok := idx.Get([]byte("7"))
	assert.True(t, ok)

	v, ok := idx.cache.Get(uint32(7))
	assert.True(t, ok)
	assert.Equal(t, uint32(1), v.FileNumber)
}

func TestNumericIndex_UpdateSucceedsOnMatchingFileNumber(t *testing.T) {
	idx, _ := newTestIndex()
	idx.Insert(7, indexmeta.Handle{FileNumber: 1, Offset: 10})

	ok := idx.Update(7, 1, indexmeta.Handle{FileNumber: 2, Offset: 99})
	assert.True(t, ok)

	v, ok := idx.Get([]byte("7"))
	assert.True(t, ok)
	assert.Equal(t, uint32(2), v.FileNumber)
	assert.Equal(t, int64(99), v.Offset)
}

func TestNumericIndex_UpdateFailsOnStaleFileNumber(t *testing.T) {
	idx, _ := newTestIndex()
	idx.Insert(7, indexmeta.Handle{FileNumber: 1})

	ok := idx.Update(7, 99, indexmeta.Handle{FileNumber: 2})
	assert.False(t, ok)

	v, _ := idx.Get([]byte("7"))
	assert.Equal(t, uint32(1), v.FileNumber)
}

func TestNumericIndex_InsertInvalidatesStaleCacheEntry(t *testing.T) {
	idx, _ := newTestIndex()
	idx.Insert(7, indexmeta.Handle{FileNumber: 1})

	_, ok := idx.Get([]byte("7"))
	assert.True(t, ok)

	idx.Insert(7, indexmeta.Handle{FileNumber: 2})

	v, ok := idx.Get([]byte("7"))
	assert.True(t, ok)
	assert.Equal(t, uint32(2), v.FileNumber)
}
