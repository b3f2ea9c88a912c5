package ring

import "testing"

func TestPushEvictsOldest(t *testing.T) {
	r := New[string](2)
	r.Push("first")
	r.Push("second")
	r.Push("third")

	values := r.Values()
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0] != "second" || values[1] != "third" {
		t.Fatalf("expected [second third], got %v", values)
	}
}

func TestValuesBelowCapacity(t *testing.T) {
	r := New[int](4)
	r.Push(1)
	r.Push(2)

	values := r.Values()
	if len(values) != 2 {
		t.Fatalf("expected 2 values, got %d", len(values))
	}
	if values[0] != 1 || values[1] != 2 {
		t.Fatalf("expected [1 2], got %v", values)
	}
	if r.Cap() != 4 {
		t.Fatalf("expected capacity 4, got %d", r.Cap())
	}
}

func TestLastReturnsMostRecent(t *testing.T) {
	r := New[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}

	last := r.Last(2)
	if len(last) != 2 {
		t.Fatalf("expected 2 values, got %d", len(last))
	}
	if last[0] != 4 || last[1] != 5 {
		t.Fatalf("expected [4 5], got %v", last)
	}

	all := r.Last(10)
	if len(all) != 3 {
		t.Fatalf("expected 3 values, got %d", len(all))
	}
	if all[0] != 3 {
		t.Fatalf("expected oldest retained value 3, got %d", all[0])
	}
}

func TestNilRing(t *testing.T) {
	var r *Ring[int]
	r.Push(1)
	if r.Len() != 0 {
		t.Fatalf("expected 0 length, got %d", r.Len())
	}
	if values := r.Values(); values != nil {
		t.Fatalf("expected nil values, got %v", values)
	}
}
