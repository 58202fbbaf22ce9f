package skiplist

import "github.com/berylyvos/pmidx/flush"

// Graft detaches the inclusive range [first, last] from source and adopts
// it as the entire contents of a brand-new PersistentSkipList, re-binding
// head and tail at every level the adopted chain reaches.
//
// The detach step reuses Erase, which leaves the interior pointers of the
// excised range untouched — only the two nodes that bordered the outside
// world at each level (the tallest-reaching node nearest the front, and
// the one nearest the back) are left with a pointer escaping the adopted
// set. Those are exactly the pointers this function rebinds to the new
// list's head and tail; every other copied pointer already lands inside
// the copy.
//
// The new list's accelerator index starts empty; it is not rebuilt from
// the adopted chain, so the first Find of each adopted key walks levels
// once before the accelerator takes over (see SPEC_FULL.md §9).
func Graft(cmp Comparator, flusher flush.Flusher, source *PersistentSkipList, first, last Ref) (*PersistentSkipList, error) {
	if err := source.validateRange(first, last); err != nil {
		return nil, err
	}

	order := make([]Ref, 0)
	for cur := first; ; cur = source.arena[cur].next[0] {
		order = append(order, cur)
		if cur == last {
			break
		}
	}

	if err := source.Erase(first, last); err != nil {
		return nil, err
	}

	dst := New(cmp, flusher)

	oldToNew := make(map[Ref]Ref, len(order))
	for _, old := range order {
		n := source.arena[old]
		newRef := Ref(len(dst.arena))
		dst.arena = append(dst.arena, node{
			key:   n.key,
			value: n.value,
			level: n.level,
			next:  make([]Ref, n.level),
			prev:  make([]Ref, n.level),
		})
		oldToNew[old] = newRef
	}

	maxLevel := 0
	for _, old := range order {
		n := source.arena[old]
		nr := oldToNew[old]
		for i := 0; i < n.level; i++ {
			if t, ok := oldToNew[n.next[i]]; ok {
				dst.arena[nr].next[i] = t
			} else {
				dst.arena[nr].next[i] = noRef
			}
			if t, ok := oldToNew[n.prev[i]]; ok {
				dst.arena[nr].prev[i] = t
			} else {
				dst.arena[nr].prev[i] = noRef
			}
		}
		if n.level > maxLevel {
			maxLevel = n.level
		}
	}

	for level := 0; level < maxLevel; level++ {
		for _, old := range order {
			nr := oldToNew[old]
			if dst.arena[nr].level > level && dst.arena[nr].prev[level] == noRef {
				dst.arena[nr].prev[level] = dst.head
				dst.arena[dst.head].next[level] = nr
				break
			}
		}
		for k := len(order) - 1; k >= 0; k-- {
			nr := oldToNew[order[k]]
			if dst.arena[nr].level > level && dst.arena[nr].next[level] == noRef {
				dst.arena[nr].next[level] = dst.tail
				dst.arena[dst.tail].prev[level] = nr
				break
			}
		}
	}

	dst.currentLevel = maxLevel
	for _, old := range order {
		dst.currentSize += source.arena[old].size()
	}
	dst.flusher.Flush(encodePtrSlot(dst.head, dst.arena[dst.head].next[0]))

	return dst, nil
}
