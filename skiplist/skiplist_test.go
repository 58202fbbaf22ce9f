package skiplist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/berylyvos/pmidx/flush"
)

func newTestList() (*PersistentSkipList, *flush.Recorder) {
	r := &flush.Recorder{}
	return New(ByteCompare, r), r
}

func collectKeys(l *PersistentSkipList) []string {
	var keys []string
	for cur := l.Next(l.Head()); cur != l.Tail(); cur = l.Next(cur) {
		keys = append(keys, string(l.Key(cur)))
	}
	return keys
}

func TestInsert_IntoEmptyList(t *testing.T) {
	l, _ := newTestList()
	ref := l.Insert([]byte("a"), []byte("1"))

	assert.Equal(t, l.Next(l.Head()), ref)
	assert.Equal(t, l.Tail(), l.Next(ref))
}

func TestInsert_AscendingOrderIsPreserved(t *testing.T) {
	l, _ := newTestList()
	l.Insert([]byte("b"), []byte("2"))
	l.Insert([]byte("a"), []byte("1"))
	l.Insert([]byte("c"), []byte("3"))

	assert.Equal(t, []string{"a", "b", "c"}, collectKeys(l))
}

func TestFind_ReturnsNodeWithMatchingValue(t *testing.T) {
	l, _ := newTestList()
	l.Insert([]byte("a"), []byte("1"))
	l.Insert([]byte("b"), []byte("2"))
	l.Insert([]byte("c"), []byte("3"))

	ref, ok := l.Find([]byte("b"))
	assert.True(t, ok)
	assert.Equal(t, "2", string(l.Value(ref)))
}

func TestFind_Absent(t *testing.T) {
	l, _ := newTestList()
	l.Insert([]byte("a"), []byte("1"))

	_, ok := l.Find([]byte("z"))
	assert.False(t, ok)
}

func TestFind_PopulatesAcceleratorOnMiss(t *testing.T) {
	l, _ := newTestList()
	l.Insert([]byte("a"), []byte("1"))
	l.accel.Delete([]byte("a"))

	ref1, ok := l.Find([]byte("a"))
	assert.True(t, ok)

	v, ok := l.accel.Search([]byte("a"))
	assert.True(t, ok)
	assert.Equal(t, ref1, v.(Ref))
}

func TestInsert_DuplicateKeysProduceTwoNodesInInsertionOrder(t *testing.T) {
	l, _ := newTestList()
	l.Insert([]byte("k"), []byte("v1"))
	l.Insert([]byte("k"), []byte("v2"))

	var values []string
	for cur := l.Next(l.Head()); cur != l.Tail(); cur = l.Next(cur) {
		values = append(values, string(l.Value(cur)))
	}
	assert.Equal(t, []string{"v1", "v2"}, values)

	ref, ok := l.Find([]byte("k"))
	assert.True(t, ok)
	assert.Equal(t, "k", string(l.Key(ref)))
}

func TestInsert_FlushesLevelZeroPointers(t *testing.T) {
	l, rec := newTestList()
	rec.Reset()
	l.Insert([]byte("a"), []byte("1"))

	// key bytes, value bytes, new_node.next[0], next_node.next[0]
	assert.Equal(t, 4, rec.Count())
}

func TestInsert_IncreasesApproximateMemoryUsage(t *testing.T) {
	l, _ := newTestList()
	before := l.ApproximateMemoryUsage()
	l.Insert([]byte("abc"), []byte("defg"))
	assert.Equal(t, before+3+4, l.ApproximateMemoryUsage())
}

func TestErase_FullRangeCollapsesCurrentLevel(t *testing.T) {
	l, _ := newTestList()
	a := l.Insert([]byte("a"), []byte("1"))
	l.Insert([]byte("b"), []byte("2"))
	c := l.Insert([]byte("c"), []byte("3"))

	err := l.Erase(a, c)
	assert.NoError(t, err)

	assert.Equal(t, l.Tail(), l.Next(l.Head()))
	assert.Equal(t, 0, l.currentLevel)

	_, ok := l.Find([]byte("a"))
	assert.False(t, ok)
	_, ok = l.Find([]byte("b"))
	assert.False(t, ok)
	_, ok = l.Find([]byte("c"))
	assert.False(t, ok)
}

func TestErase_PartialRangeSkipsOnlyThatRange(t *testing.T) {
	l, _ := newTestList()
	l.Insert([]byte("a"), []byte("1"))
	b := l.Insert([]byte("b"), []byte("2"))
	c := l.Insert([]byte("c"), []byte("3"))
	l.Insert([]byte("d"), []byte("4"))

	assert.NoError(t, l.Erase(b, c))
	assert.Equal(t, []string{"a", "d"}, collectKeys(l))
}

func TestErase_InvalidRangeRejected(t *testing.T) {
	l, _ := newTestList()
	a := l.Insert([]byte("a"), []byte("1"))
	b := l.Insert([]byte("b"), []byte("2"))

	err := l.Erase(b, a)
	assert.ErrorIs(t, err, ErrInvalidRange)

	err = l.Erase(l.Head(), b)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestApproximateMemoryUsage_NotDecrementedByErase(t *testing.T) {
	l, _ := newTestList()
	a := l.Insert([]byte("a"), []byte("1"))
	b := l.Insert([]byte("b"), []byte("2"))
	before := l.ApproximateMemoryUsage()

	assert.NoError(t, l.Erase(a, b))
	assert.Equal(t, before, l.ApproximateMemoryUsage())
}

func TestMutualPointerIntegrity(t *testing.T) {
	l, _ := newTestList()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		l.Insert([]byte(k), []byte(k))
	}

	for ref := l.Next(l.Head()); ref != l.Tail(); ref = l.Next(ref) {
		n := l.arena[ref]
		for i := 0; i < n.level; i++ {
			nxt := n.next[i]
			prv := n.prev[i]
			assert.Equal(t, ref, l.arena[nxt].prev[i])
			assert.Equal(t, ref, l.arena[prv].next[i])
		}
	}
}
