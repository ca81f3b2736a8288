package isomorph

import "strings"

// Queue is a singly-linked FIFO of vertex references. A vertex may be a
// member of exactly one Queue at a time, qnext is owned by whichever Queue
// currently holds the vertex.
type Queue struct {
	top, bottom *Vertex
	size        int
}

func (q *Queue) Clear() {
	q.top, q.bottom = nil, nil
	q.size = 0
}

func (q *Queue) Size() int { return q.size }

func (q *Queue) Empty() bool { return q.size == 0 }

// PushBack inserts v at the tail of the queue.
func (q *Queue) PushBack(v *Vertex) {
	v.qnext = nil
	if q.bottom == nil {
		q.top = v
	} else {
		q.bottom.qnext = v
	}
	q.bottom = v
	q.size++
}

// PopFront removes and returns the head of the queue, or nil if empty.
func (q *Queue) PopFront() *Vertex {
	v := q.top
	if v == nil {
		return nil
	}
	q.top = v.qnext
	if q.top == nil {
		q.bottom = nil
	}
	v.qnext = nil
	q.size--
	return v
}

// Peek returns the head of the queue without removing it.
func (q *Queue) Peek() *Vertex { return q.top }

// Append concatenates other onto the tail of q in O(1) and empties other.
func (q *Queue) Append(other *Queue) {
	if other.top == nil {
		return
	}
	if q.bottom == nil {
		q.top = other.top
	} else {
		q.bottom.qnext = other.top
	}
	q.bottom = other.bottom
	q.size += other.size
	other.Clear()
}

// ForEach visits every vertex in the queue front to back. fn must not mutate
// queue membership (use a separate drain pass for that).
func (q *Queue) ForEach(fn func(*Vertex)) {
	for v := q.top; v != nil; v = v.qnext {
		fn(v)
	}
}

// ToSlice copies the queue contents out (does not drain the queue).
func (q *Queue) ToSlice() []*Vertex {
	out := make([]*Vertex, 0, q.size)
	q.ForEach(func(v *Vertex) { out = append(out, v) })
	return out
}

// insertSortThreshold is the cutover point below which insertion sort beats
// the partitioning overhead of the quicksort-style split.
const insertSortThreshold = 7

// Sort orders the queue by Value ascending using a hybrid insertion
// sort / quicksort. Ties break by original (stable) order.
func (q *Queue) Sort() {
	items := q.ToSlice()
	if len(items) < 2 {
		return
	}
	sortVertices(items)
	q.Clear()
	for _, v := range items {
		q.PushBack(v)
	}
}

func sortVertices(items []*Vertex) {
	if len(items) <= insertSortThreshold {
		insertionSort(items)
		return
	}
	if alreadySorted(items) {
		return
	}
	pivot := items[0].Value/2 + items[len(items)-1].Value/2
	lo, hi := 0, len(items)-1
	work := make([]*Vertex, len(items))
	copy(work, items)
	var less, equal, greater []*Vertex
	for _, v := range work {
		switch {
		case v.Value < pivot:
			less = append(less, v)
		case v.Value > pivot:
			greater = append(greater, v)
		default:
			equal = append(equal, v)
		}
	}
	if len(less) == 0 || len(greater) == 0 {
		// Degenerate partition (all values equal the pivot or fall on one
		// side), fall back to insertion sort to guarantee progress.
		insertionSort(items)
		return
	}
	sortVertices(less)
	sortVertices(greater)
	out := append(append(less, equal...), greater...)
	copy(items, out)
	_ = lo
	_ = hi
}

func alreadySorted(items []*Vertex) bool {
	for i := 1; i < len(items); i++ {
		if items[i-1].Value > items[i].Value {
			return false
		}
	}
	return true
}

func insertionSort(items []*Vertex) {
	for i := 1; i < len(items); i++ {
		v := items[i]
		j := i - 1
		for j >= 0 && items[j].Value > v.Value {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = v
	}
}

// normalizeSuffixName lowercases a name and strips everything that is not a
// letter or digit.
func normalizeSuffixName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			if r >= 'A' && r <= 'Z' {
				r = r - 'A' + 'a'
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// cmpSuffix reports whether a and b share a common alphanumeric suffix of at
// least length 1, scanning right to left.
func cmpSuffix(a, b string) bool {
	na, nb := normalizeSuffixName(a), normalizeSuffixName(b)
	if na == "" || nb == "" {
		return false
	}
	i, j := len(na)-1, len(nb)-1
	matched := 0
	for i >= 0 && j >= 0 && na[i] == nb[j] {
		matched++
		i--
		j--
	}
	return matched > 0
}

// MatchBySuffix performs an O(n*m) scan over q and other looking for a pair
// of vertices whose names share a suffix. On the first match it rotates both
// matched vertices to the front of their respective queues and returns them.
func MatchBySuffix(q, other *Queue) (*Vertex, *Vertex, bool) {
	for a := q.top; a != nil; a = a.qnext {
		for b := other.top; b != nil; b = b.qnext {
			if cmpSuffix(a.Name, b.Name) {
				rotateToFront(q, a)
				rotateToFront(other, b)
				return a, b, true
			}
		}
	}
	return nil, nil, false
}

// rotateToFront moves target to the head of the queue, preserving the
// relative order of everything else.
func rotateToFront(q *Queue, target *Vertex) {
	if q.top == target {
		return
	}
	items := q.ToSlice()
	out := make([]*Vertex, 0, len(items))
	out = append(out, target)
	for _, v := range items {
		if v != target {
			out = append(out, v)
		}
	}
	q.Clear()
	for _, v := range out {
		q.PushBack(v)
	}
}
