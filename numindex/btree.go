package numindex

import (
	"sync"

	"github.com/google/btree"

	"github.com/berylyvos/pmidx/indexmeta"
)

const btreeDegree = 32

type item struct {
	key  uint32
	meta indexmeta.Handle
}

func (i *item) Less(other btree.Item) bool {
	return i.key < other.(*item).key
}

// Delegate is a concrete numeric B-tree satisfying the BTree interface
// NumericIndex consumes, wrapping github.com/google/btree under a mutex.
// NumericIndex treats any BTree as an opaque collaborator; this is simply
// the one the module ships so it's exercisable end to end.
type Delegate struct {
	mu   sync.RWMutex
	tree *btree.BTree
}

// NewDelegate constructs an empty Delegate.
func NewDelegate() *Delegate {
	return &Delegate{tree: btree.New(btreeDegree)}
}

// Search implements BTree.
func (d *Delegate) Search(key uint32) (indexmeta.Handle, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v := d.tree.Get(&item{key: key})
	if v == nil {
		return indexmeta.Handle{}, false
	}
	return v.(*item).meta, true
}

// Insert implements BTree.
func (d *Delegate) Insert(key uint32, meta indexmeta.Handle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.tree.ReplaceOrInsert(&item{key: key, meta: meta})
}

// Update implements BTree, treating prevFileNumber as a compare-and-swap
// predicate against the currently stored handle's FileNumber: it only
// replaces the entry if the predicate matches an existing entry.
func (d *Delegate) Update(key uint32, prevFileNumber uint32, meta indexmeta.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	existing := d.tree.Get(&item{key: key})
	if existing == nil || existing.(*item).meta.FileNumber != prevFileNumber {
		return false
	}
	d.tree.ReplaceOrInsert(&item{key: key, meta: meta})
	return true
}

// Size returns the number of keys in the delegate tree.
func (d *Delegate) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.Len()
}
