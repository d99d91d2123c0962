package refmap

import (
	"fmt"

	db "armos/debug"
)

//
// Map of ref-counted references of type K to objects of type T. The
// file layer uses it to count the holders of an open file or an
// in-core inode, and to release the object when the last holder lets
// go. The caller is responsible for concurrency control.
//

type entry[T any] struct {
	n int
	e T
}

func (e *entry[T]) String() string {
	return fmt.Sprintf("{n %d %v}", e.n, e.e)
}

type RefTable[K comparable, T any] struct {
	debug db.Tselector
	refs  map[K]*entry[T]
}

func NewRefTable[K comparable, T any](debug db.Tselector) *RefTable[K, T] {
	return &RefTable[K, T]{
		debug: debug + db.REFMAP_SUFFIX,
		refs:  make(map[K]*entry[T]),
	}
}

func (rf *RefTable[K, T]) Lookup(k K) (T, bool) {
	var r T
	if e, ok := rf.refs[k]; ok {
		return e.e, true
	}
	return r, false
}

// Insert takes a reference to k, creating its object with newT if k
// has no holders yet. It reports whether the object already existed.
func (rf *RefTable[K, T]) Insert(k K, newT func() T) (T, bool) {
	if e, ok := rf.refs[k]; ok {
		e.n += 1
		db.DPrintf(rf.debug, "insert %v %v", k, e)
		return e.e, true
	}
	e := &entry[T]{n: 1, e: newT()}
	db.DPrintf(rf.debug, "new insert %v %v", k, e)
	rf.refs[k] = e
	return e.e, false
}

// Incr takes another reference to an existing k.
func (rf *RefTable[K, T]) Incr(k K) error {
	e, ok := rf.refs[k]
	if !ok {
		return fmt.Errorf("Incr: %v not present", k)
	}
	e.n += 1
	db.DPrintf(rf.debug, "incr %v %v", k, e)
	return nil
}

// Delete drops a reference to k and reports whether it was the last
// one, in which case k is gone from the table.
func (rf *RefTable[K, T]) Delete(k K) (bool, error) {
	e, ok := rf.refs[k]
	if !ok {
		db.DPrintf(db.ERROR, "delete %v %v", rf.debug, k)
		return false, fmt.Errorf("Delete: %v not present", k)
	}
	e.n -= 1
	if e.n <= 0 {
		db.DPrintf(rf.debug, "delete %v -> %v", k, e.e)
		delete(rf.refs, k)
		return true, nil
	}
	db.DPrintf(rf.debug, "decr %v %v", k, e)
	return false, nil
}

// Nref returns the number of references to k.
func (rf *RefTable[K, T]) Nref(k K) int {
	if e, ok := rf.refs[k]; ok {
		return e.n
	}
	return 0
}

func (rf *RefTable[K, T]) Len() int {
	return len(rf.refs)
}
