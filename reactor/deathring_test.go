package reactor

import "testing"

func TestDeathRingFIFOOrder(t *testing.T) {
	r := newDeathRing(4)
	r.push(10)
	r.push(20)
	r.push(30)

	if r.population != 3 {
		t.Fatalf("population = %d, want 3", r.population)
	}

	for _, want := range []int{10, 20, 30} {
		fd, ok := r.peek()
		if !ok {
			t.Fatalf("peek() returned empty, want %d", want)
		}
		if fd != want {
			t.Fatalf("peek() = %d, want %d", fd, want)
		}
		if got := r.pop(); got != want {
			t.Fatalf("pop() = %d, want %d", got, want)
		}
	}

	if !r.empty() {
		t.Fatalf("ring should be empty after draining")
	}
}

func TestDeathRingWrapsAroundCapacity(t *testing.T) {
	r := newDeathRing(3)
	r.push(1)
	r.push(2)
	r.push(3)
	if r.pop() != 1 {
		t.Fatal("expected fd 1 at head")
	}
	r.push(4) // wraps into the slot vacated by 1
	for _, want := range []int{2, 3, 4} {
		if got := r.pop(); got != want {
			t.Fatalf("pop() = %d, want %d", got, want)
		}
	}
}

func TestDeathRingOverflowPanics(t *testing.T) {
	r := newDeathRing(2)
	r.push(1)
	r.push(2)

	defer func() {
		if recover() == nil {
			t.Fatal("expected push beyond capacity to panic")
		}
	}()
	r.push(3)
}

func TestDeathRingPopulationNeverExceedsCapacity(t *testing.T) {
	capacity := 8
	r := newDeathRing(capacity)
	for i := 0; i < capacity; i++ {
		r.push(i)
		if r.population > capacity {
			t.Fatalf("population %d exceeds capacity %d", r.population, capacity)
		}
	}
}
