package proc

import "sync"

import "nucleus/defs"

// Hashtable_t is a chaining hash table keyed on defs.Tid_t, adapted
// from biscuit's Hashtable_t (biscuit/src/hashtable/hashtable.go) but
// specialized to the tid key space instead of interface{}, since every
// lookup in this kernel's task/thread tables is by tid (spec.md §3
// "hash table PCBs by tid, hash table TCBs by tid"). Each bucket has
// its own mutex rather than the teacher's lock-free atomic-pointer
// chains, since this table sees orders of magnitude less contention
// than a page cache.
type Hashtable_t struct {
	buckets []bucket_t
}

type bucket_t struct {
	sync.Mutex
	first *elem_t
}

type elem_t struct {
	key  defs.Tid_t
	val  interface{}
	next *elem_t
}

// NewHashtable allocates a table with nbuckets buckets.
func NewHashtable(nbuckets int) *Hashtable_t {
	return &Hashtable_t{buckets: make([]bucket_t, nbuckets)}
}

func (h *Hashtable_t) bucket(key defs.Tid_t) *bucket_t {
	idx := int(key) % len(h.buckets)
	if idx < 0 {
		idx += len(h.buckets)
	}
	return &h.buckets[idx]
}

// Get returns the value registered under key, if any.
func (h *Hashtable_t) Get(key defs.Tid_t) (interface{}, bool) {
	b := h.bucket(key)
	b.Lock()
	defer b.Unlock()
	for e := b.first; e != nil; e = e.next {
		if e.key == key {
			return e.val, true
		}
	}
	return nil, false
}

// Set inserts or overwrites the value registered under key.
func (h *Hashtable_t) Set(key defs.Tid_t, val interface{}) {
	b := h.bucket(key)
	b.Lock()
	defer b.Unlock()
	for e := b.first; e != nil; e = e.next {
		if e.key == key {
			e.val = val
			return
		}
	}
	b.first = &elem_t{key: key, val: val, next: b.first}
}

// Del removes key, if present.
func (h *Hashtable_t) Del(key defs.Tid_t) {
	b := h.bucket(key)
	b.Lock()
	defer b.Unlock()
	var prev *elem_t
	for e := b.first; e != nil; e = e.next {
		if e.key == key {
			if prev == nil {
				b.first = e.next
			} else {
				prev.next = e.next
			}
			return
		}
		prev = e
	}
}

// Len reports the total number of entries across every bucket.
func (h *Hashtable_t) Len() int {
	n := 0
	for i := range h.buckets {
		b := &h.buckets[i]
		b.Lock()
		for e := b.first; e != nil; e = e.next {
			n++
		}
		b.Unlock()
	}
	return n
}
