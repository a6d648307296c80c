package cuid

import (
	"testing"
	"time"
)

func TestDeterministic(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	a := New([]byte("seed"), at)
	b := New([]byte("seed"), at)
	if a.String() != b.String() {
		t.Fatalf("same seed and time must produce the same id: %s != %s", a, b)
	}

	c := New([]byte("other"), at)
	if a.String() == c.String() {
		t.Fatalf("different seeds must not collide")
	}
}

func TestTimeRoundTrip(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	id := New([]byte("seed"), at)
	if !id.Time().Equal(at) {
		t.Fatalf("expected %v got %v", at, id.Time())
	}
}

func TestSortable(t *testing.T) {
	early := New([]byte("x"), time.UnixMilli(1700000000000))
	late := New([]byte("x"), time.UnixMilli(1700000001000))
	if !(early.String() < late.String()) {
		t.Fatalf("ids must sort by creation time: %s >= %s", early, late)
	}
}

func TestRandomUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewRandom().String()
		if seen[id] {
			t.Fatalf("duplicate random id %s", id)
		}
		seen[id] = true
	}
}
