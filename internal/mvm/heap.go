package mvm

import "github.com/MYJ-GOD/M-Language-Core/internal/mvalue"

const (
	maxArrayLen    = 1_000_000
	maxAllocBytes  = 1_000_000
	autoGCInterval = 4096 // allocations between implicit collections, when enabled
)

type heapKind uint8

const (
	heapArray heapKind = iota
	heapBuffer
)

type heapObj struct {
	kind   heapKind
	array  *mvalue.Array
	buf    []byte
	marked bool
}

// heap owns every live array and ALLOC buffer for one VM instance, linked
// by monotonically increasing Handle ids. Handles are never reused within
// a run.
type heap struct {
	objects      map[mvalue.Handle]*heapObj
	next         mvalue.Handle
	allocsSinceGC int
	autoGC       bool
}

func newHeap() *heap {
	return &heap{objects: map[mvalue.Handle]*heapObj{}, next: 1}
}

func (h *heap) allocArray(length int) (mvalue.Handle, bool) {
	if length < 0 || length > maxArrayLen {
		return 0, false
	}
	handle := h.next
	h.next++
	h.objects[handle] = &heapObj{kind: heapArray, array: mvalue.NewArray(length)}
	h.allocsSinceGC++
	return handle, true
}

func (h *heap) allocBuffer(size int) (mvalue.Handle, bool) {
	if size < 1 || size > maxAllocBytes {
		return 0, false
	}
	handle := h.next
	h.next++
	h.objects[handle] = &heapObj{kind: heapBuffer, buf: make([]byte, size)}
	h.allocsSinceGC++
	return handle, true
}

func (h *heap) array(ref mvalue.Handle) (*mvalue.Array, bool) {
	obj, ok := h.objects[ref]
	if !ok || obj.kind != heapArray {
		return nil, false
	}
	return obj.array, true
}

func (h *heap) free(ref mvalue.Handle) bool {
	if _, ok := h.objects[ref]; !ok {
		return false
	}
	delete(h.objects, ref)
	return true
}

func (h *heap) reset() {
	h.objects = map[mvalue.Handle]*heapObj{}
	h.next = 1
	h.allocsSinceGC = 0
}

// shouldAutoGC reports whether the allocation counter has crossed the
// threshold since the last collection.
func (h *heap) shouldAutoGC() bool {
	return h.autoGC && h.allocsSinceGC >= autoGCInterval
}

// gc runs mark-sweep over the given Value roots: arrays are marked by
// following ArrayRef edges, recursively through element Values,
// with a visited set keyed by Handle (identity is the handle id, not a
// raw pointer, since Go allocations don't expose one usefully here) to
// break cycles. Unmarked arrays are freed; ALLOC buffers are never
// collected here and are released only by FREE.
func (h *heap) gc(roots []mvalue.Value) {
	for _, obj := range h.objects {
		obj.marked = false
	}
	visited := map[mvalue.Handle]bool{}
	var mark func(v mvalue.Value)
	mark = func(v mvalue.Value) {
		if v.Tag != mvalue.TagArrayRef {
			return
		}
		if visited[v.Ref] {
			return
		}
		visited[v.Ref] = true
		obj, ok := h.objects[v.Ref]
		if !ok {
			return
		}
		obj.marked = true
		for _, elem := range obj.array.Elements {
			mark(elem)
		}
	}
	for _, r := range roots {
		mark(r)
	}
	for handle, obj := range h.objects {
		if obj.kind == heapArray && !obj.marked {
			delete(h.objects, handle)
		}
	}
	h.allocsSinceGC = 0
}
