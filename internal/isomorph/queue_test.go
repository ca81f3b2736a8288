package isomorph

import "testing"

func newTestVertex(name string, value uint32) *Vertex {
	return &Vertex{Kind: Net, Name: name, Value: value}
}

func TestQueuePushPopOrder(t *testing.T) {
	var q Queue
	a, b, c := newTestVertex("a", 1), newTestVertex("b", 2), newTestVertex("c", 3)
	q.PushBack(a)
	q.PushBack(b)
	q.PushBack(c)

	if q.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", q.Size())
	}
	for _, want := range []*Vertex{a, b, c} {
		if got := q.PopFront(); got != want {
			t.Fatalf("PopFront() = %v, want %v", got.Name, want.Name)
		}
	}
	if q.PopFront() != nil {
		t.Fatalf("PopFront() on empty queue should return nil")
	}
	if !q.Empty() {
		t.Fatalf("Empty() should be true after draining")
	}
}

func TestQueueAppendConcatenatesAndEmptiesSource(t *testing.T) {
	var q1, q2 Queue
	q1.PushBack(newTestVertex("a", 1))
	q2.PushBack(newTestVertex("b", 2))
	q2.PushBack(newTestVertex("c", 3))

	q1.Append(&q2)

	if q1.Size() != 3 {
		t.Fatalf("q1.Size() = %d, want 3", q1.Size())
	}
	if !q2.Empty() {
		t.Fatalf("q2 should be emptied after Append")
	}
	names := []string{}
	q1.ForEach(func(v *Vertex) { names = append(names, v.Name) })
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if names[i] != n {
			t.Errorf("names[%d] = %q, want %q", i, names[i], n)
		}
	}
}

func TestQueueSortOrdersByValue(t *testing.T) {
	values := []uint32{50, 3, 9000, 1, 42, 42, 7}
	var q Queue
	for i, v := range values {
		q.PushBack(newTestVertex("v", v))
		_ = i
	}
	q.Sort()

	sorted := q.ToSlice()
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Value > sorted[i].Value {
			t.Fatalf("queue not sorted: %v", q.ToSlice())
		}
	}
	if len(sorted) != len(values) {
		t.Fatalf("Sort() lost elements: got %d, want %d", len(sorted), len(values))
	}
}

func TestQueueSortLargerThanInsertionThreshold(t *testing.T) {
	var q Queue
	for i := 20; i > 0; i-- {
		q.PushBack(newTestVertex("v", uint32(i)))
	}
	q.Sort()
	prev := uint32(0)
	q.ForEach(func(v *Vertex) {
		if v.Value < prev {
			t.Fatalf("queue out of order at value %d after %d", v.Value, prev)
		}
		prev = v.Value
	})
}

func TestMatchBySuffixFindsSharedSuffixAndRotates(t *testing.T) {
	var q1, q2 Queue
	vNoMatch := newTestVertex("foo", 0)
	vA := newTestVertex("node_42", 0)
	q1.PushBack(vNoMatch)
	q1.PushBack(vA)

	vOther := newTestVertex("bar", 0)
	vB := newTestVertex("other_42", 0)
	q2.PushBack(vOther)
	q2.PushBack(vB)

	a, b, ok := MatchBySuffix(&q1, &q2)
	if !ok {
		t.Fatalf("expected a suffix match between node_42 and other_42")
	}
	if a != vA || b != vB {
		t.Fatalf("matched wrong pair: %v / %v", a.Name, b.Name)
	}
	if q1.Peek() != vA {
		t.Fatalf("expected matched vertex rotated to front of q1")
	}
	if q2.Peek() != vB {
		t.Fatalf("expected matched vertex rotated to front of q2")
	}
}

func TestMatchBySuffixNoCommonSuffix(t *testing.T) {
	var q1, q2 Queue
	q1.PushBack(newTestVertex("abc", 0))
	q2.PushBack(newTestVertex("xyz", 0))
	if _, _, ok := MatchBySuffix(&q1, &q2); ok {
		t.Fatalf("expected no suffix match between unrelated names")
	}
}
