package queue

import (
	"sync"
	"testing"
)

type row struct {
	Frame uint
	ID    int
}

func TestQueue_New(t *testing.T) {
	q := New[row]()
	if q == nil {
		t.Fatal("expected non-nil queue")
	}
	if !q.Empty() {
		t.Error("expected empty queue")
	}
	if q.Len() != 0 {
		t.Errorf("expected length 0, got %d", q.Len())
	}
}

func TestQueue_Push(t *testing.T) {
	q := New[row]()

	q.Push(row{Frame: 1})
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}

	q.Push(row{Frame: 2}, row{Frame: 3})
	if q.Len() != 3 {
		t.Errorf("expected length 3, got %d", q.Len())
	}
}

func TestQueue_TakeBatch(t *testing.T) {
	q := New[row]()

	if got := q.TakeBatch(10); got != nil {
		t.Errorf("expected nil from empty queue, got %v", got)
	}

	q.Push(row{Frame: 1}, row{Frame: 2}, row{Frame: 3})

	first := q.TakeBatch(2)
	if len(first) != 2 || first[0].Frame != 1 || first[1].Frame != 2 {
		t.Errorf("expected frames 1 and 2, got %+v", first)
	}
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}

	rest := q.TakeBatch(0)
	if len(rest) != 1 || rest[0].Frame != 3 {
		t.Errorf("expected frame 3, got %+v", rest)
	}
	if !q.Empty() {
		t.Error("expected empty queue after taking everything")
	}
}

func TestQueue_TakeBatchDoesNotAlias(t *testing.T) {
	q := New[row]()
	q.Push(row{Frame: 1}, row{Frame: 2}, row{Frame: 3})

	batch := q.TakeBatch(1)
	batch[0].Frame = 99
	q.Push(row{Frame: 4})

	rest := q.TakeBatch(0)
	if rest[0].Frame != 2 || rest[2].Frame != 4 {
		t.Errorf("unexpected items: %+v", rest)
	}
}

func TestQueue_Requeue(t *testing.T) {
	q := New[row]()
	q.Push(row{Frame: 1}, row{Frame: 2})

	failed := q.TakeBatch(0)
	q.Push(row{Frame: 3})
	q.Requeue(failed)
	q.Requeue(nil)

	got := q.TakeBatch(0)
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	for i, want := range []uint{1, 2, 3} {
		if got[i].Frame != want {
			t.Errorf("item %d: expected frame %d, got %d", i, want, got[i].Frame)
		}
	}
}

func TestQueue_ConcurrentPush(t *testing.T) {
	q := New[row]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			q.Push(row{ID: id})
		}(i)
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Errorf("expected 100 items, got %d", q.Len())
	}
}

func TestQueue_ConcurrentTakeBatch(t *testing.T) {
	q := New[row]()
	for i := 0; i < 100; i++ {
		q.Push(row{ID: i})
	}

	var wg sync.WaitGroup
	results := make(chan []row, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- q.TakeBatch(15)
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for r := range results {
		total += len(r)
	}
	if total != 100 {
		t.Errorf("expected total 100 items, got %d", total)
	}
}
