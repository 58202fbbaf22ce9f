// Package skiplist implements PersistentSkipList, an ordered map from
// byte-string keys to byte-string values whose pointer mutations are made
// crash-consistent against a byte-addressable persistent medium via
// explicit flushes.
//
// Nodes live in an arena (a growable slice) owned by the list; a Ref is an
// index into that arena rather than a pointer, so the list never aliases
// raw memory the way the structure it's modeled on does. A DRAM-only
// adaptive radix tree fronts point lookups so Find doesn't have to walk
// levels for keys it has already seen.
package skiplist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"sync"
	"time"

	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/berylyvos/pmidx/flush"
)

// MaxLevel bounds how tall any node, including the sentinels, can be.
const MaxLevel = 32

// Ref is a reference to a node in a PersistentSkipList. It is an index
// into the list's arena, never a raw pointer.
type Ref int

// noRef marks an absent reference, e.g. the not-yet-bound neighbor of a
// node that hasn't been spliced into a list.
const noRef Ref = -1

// Comparator is a total order over byte-string keys.
type Comparator func(a, b []byte) int

// ByteCompare is the default Comparator, delegating to bytes.Compare.
func ByteCompare(a, b []byte) int {
	return bytes.Compare(a, b)
}

type node struct {
	key   []byte
	value []byte
	level int
	next  []Ref
	prev  []Ref
}

func (n *node) size() int {
	return len(n.key) + len(n.value)
}

// PersistentSkipList is a multi-level, bidirectionally linked ordered map.
// It is not safe for concurrent use; callers must serialize access.
type PersistentSkipList struct {
	cmp     Comparator
	flusher flush.Flusher

	arena []node
	head  Ref
	tail  Ref

	currentLevel int
	currentSize  int

	accel art.Tree
}

var (
	randMu  sync.Mutex
	randSrc = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// randomLevel draws from a geometric distribution with success
// probability 1/4, capped at MaxLevel. Determinism is not required or
// provided; callers must treat it as an external randomness source.
func randomLevel() int {
	randMu.Lock()
	defer randMu.Unlock()
	level := 1
	for randSrc.Intn(4) == 0 && level < MaxLevel {
		level++
	}
	return level
}

// New constructs an empty PersistentSkipList, with head and tail linked
// at every level.
func New(cmp Comparator, flusher flush.Flusher) *PersistentSkipList {
	l := &PersistentSkipList{
		cmp:     cmp,
		flusher: flusher,
		accel:   art.New(),
	}
	l.head = l.allocSentinel()
	l.tail = l.allocSentinel()
	for i := 0; i < MaxLevel; i++ {
		l.arena[l.head].next[i] = l.tail
		l.arena[l.tail].prev[i] = l.head
	}
	l.flusher.Flush(encodePtrSlot(l.head, l.tail))
	return l
}

func (l *PersistentSkipList) allocSentinel() Ref {
	l.arena = append(l.arena, node{
		level: MaxLevel,
		next:  make([]Ref, MaxLevel),
		prev:  make([]Ref, MaxLevel),
	})
	return Ref(len(l.arena) - 1)
}

// allocNode copies key and value into a freshly owned node and flushes
// their raw bytes, matching the source's MakeNode.
func (l *PersistentSkipList) allocNode(key, value []byte, level int) Ref {
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	l.flusher.Flush(k)
	l.flusher.Flush(v)
	l.arena = append(l.arena, node{
		key:   k,
		value: v,
		level: level,
		next:  make([]Ref, level),
		prev:  make([]Ref, level),
	})
	return Ref(len(l.arena) - 1)
}

func (l *PersistentSkipList) levelOf(r Ref) int {
	return l.arena[r].level
}

func (l *PersistentSkipList) keyOf(r Ref) []byte {
	return l.arena[r].key
}

// Head returns the list's head sentinel.
func (l *PersistentSkipList) Head() Ref { return l.head }

// Tail returns the list's tail sentinel.
func (l *PersistentSkipList) Tail() Ref { return l.tail }

// Next returns the level-0 successor of ref.
func (l *PersistentSkipList) Next(ref Ref) Ref {
	return l.arena[ref].next[0]
}

// Prev returns the level-0 predecessor of ref.
func (l *PersistentSkipList) Prev(ref Ref) Ref {
	return l.arena[ref].prev[0]
}

// Key returns the key stored at ref. ref must not be a sentinel.
func (l *PersistentSkipList) Key(ref Ref) []byte {
	return l.arena[ref].key
}

// Value returns the value stored at ref. ref must not be a sentinel.
func (l *PersistentSkipList) Value(ref Ref) []byte {
	return l.arena[ref].value
}

// ApproximateMemoryUsage returns the sum of key+value bytes ever inserted
// into this list. It is never decremented by Erase; it approximates the
// high-water mark, not the live footprint.
func (l *PersistentSkipList) ApproximateMemoryUsage() int {
	return l.currentSize
}

// findGE returns the first node whose key is >= key, walking down from
// the tallest active level.
func (l *PersistentSkipList) findGE(key []byte) Ref {
	cur := l.head
	for i := l.currentLevel - 1; i >= 0; i-- {
		for l.arena[cur].next[i] != l.tail && l.cmp(l.keyOf(l.arena[cur].next[i]), key) < 0 {
			cur = l.arena[cur].next[i]
		}
	}
	return l.arena[cur].next[0]
}

// Insert always creates a new node, even if key already has an equal
// node; level-0 order places the new node after any existing equal keys.
func (l *PersistentSkipList) Insert(key, value []byte) Ref {
	found := l.findGE(key)
	level := randomLevel()

	nextNode := found
	prevNode := l.arena[found].prev[0]
	dup := false
	for nextNode != l.tail && l.cmp(l.keyOf(nextNode), key) == 0 {
		prevNode = nextNode
		nextNode = l.arena[nextNode].next[0]
		dup = true
	}

	newRef := l.allocNode(key, value, level)
	if level > l.currentLevel {
		l.currentLevel = level
	}

	for i := 0; i < level; i++ {
		for l.levelOf(nextNode) <= i {
			nextNode = l.arena[nextNode].next[i-1]
		}
		for l.levelOf(prevNode) <= i {
			prevNode = l.arena[prevNode].prev[i-1]
		}

		l.arena[newRef].next[i] = nextNode
		l.arena[nextNode].prev[i] = newRef
		l.arena[newRef].prev[i] = prevNode
		l.arena[prevNode].next[i] = newRef

		if i == 0 {
			l.flusher.Flush(encodePtrSlot(newRef, l.arena[newRef].next[0]))
			l.flusher.Flush(encodePtrSlot(nextNode, l.arena[nextNode].next[0]))
		}
	}

	l.currentSize += l.arena[newRef].size()
	if !dup {
		l.accel.Insert(key, newRef)
	}
	return newRef
}

// Find returns the first node equal to key, or (noRef, false) if absent.
// A hit in the DRAM accelerator short-circuits the level walk entirely;
// the accelerator is itself populated on every miss that falls through to
// a real match, so repeated lookups of the same key only walk once.
func (l *PersistentSkipList) Find(key []byte) (Ref, bool) {
	if v, ok := l.accel.Search(key); ok {
		return v.(Ref), true
	}
	found := l.findGE(key)
	if found != l.tail && l.cmp(l.keyOf(found), key) == 0 {
		l.accel.Insert(key, found)
		return found, true
	}
	return noRef, false
}

// ErrInvalidRange is returned by Erase (and Graft, which erases its
// source range) when first or last is not a non-sentinel node of this
// list's arena, or when first's key sorts after last's. Whether the two
// nodes are still linked into the list is not checked.
var ErrInvalidRange = errors.New("skiplist: invalid erase range")

func (l *PersistentSkipList) validRef(r Ref) bool {
	return r >= 0 && int(r) < len(l.arena) && r != l.head && r != l.tail
}

func (l *PersistentSkipList) validateRange(first, last Ref) error {
	if !l.validRef(first) || !l.validRef(last) {
		return ErrInvalidRange
	}
	if l.cmp(l.keyOf(first), l.keyOf(last)) > 0 {
		return ErrInvalidRange
	}
	return nil
}

// Erase removes the inclusive range [first, last] from every level. The
// excised nodes' arena slots are not reclaimed; their lifetime is the
// caller's concern (Graft in this package, or pmidx.Store.Erase).
func (l *PersistentSkipList) Erase(first, last Ref) error {
	if err := l.validateRange(first, last); err != nil {
		return err
	}

	for cur := first; ; cur = l.arena[cur].next[0] {
		l.accel.Delete(l.arena[cur].key)
		if cur == last {
			break
		}
	}

	left := l.arena[first].prev[0]
	right := l.arena[last].next[0]
	for level := 0; level < l.currentLevel; level++ {
		l.arena[left].next[level] = right
		l.arena[right].prev[level] = left
		if level == 0 {
			l.flusher.Flush(encodePtrSlot(left, right))
		}
		for l.levelOf(left) <= level+1 {
			left = l.arena[left].prev[level]
		}
		for l.levelOf(right) <= level+1 {
			right = l.arena[right].next[level]
		}
	}

	for l.currentLevel > 0 &&
		l.arena[l.head].next[l.currentLevel-1] == l.tail &&
		l.arena[l.tail].prev[l.currentLevel-1] == l.head {
		l.currentLevel--
	}

	return nil
}

// Close releases the list's arena and accelerator index. It does not
// flush anything; any pending mutation has already been flushed by the
// call that made it.
func (l *PersistentSkipList) Close() {
	l.arena = nil
	l.accel = nil
}

// encodePtrSlot encodes "the level-0 next slot of node ref now holds
// target" as a flush extent: the slot's identity plus the new pointer
// value it holds, the closest faithful stand-in for "the address and
// contents of a real pointer-sized memory slot" available without a raw
// address to give the Flusher.
func encodePtrSlot(ref, target Ref) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:8], uint64(ref))
	binary.LittleEndian.PutUint64(b[8:16], uint64(target))
	return b
}
