package alertlog

import (
	"fmt"
	"sync"
	"testing"
)

func TestLogDropsOldestAtCapacity(t *testing.T) {
	l := New(3)

	for i := 0; i < 5; i++ {
		l.Append(Entry{"seq": i})
	}

	all := l.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	if all[0]["seq"] != 2 || all[2]["seq"] != 4 {
		t.Errorf("entries = %v, want oldest dropped", all)
	}
}

func TestLogDefaultCapacity(t *testing.T) {
	l := New(0)
	for i := 0; i < defaultCapacity+10; i++ {
		l.Append(Entry{"seq": i})
	}
	if l.Len() != defaultCapacity {
		t.Errorf("Len = %d, want %d", l.Len(), defaultCapacity)
	}
}

func TestLogAllReturnsCopy(t *testing.T) {
	l := New(2)
	l.Append(Entry{"a": 1})

	snapshot := l.All()
	l.Append(Entry{"b": 2})

	if len(snapshot) != 1 {
		t.Errorf("snapshot mutated: %v", snapshot)
	}
}

func TestLogConcurrentAppend(t *testing.T) {
	l := New(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Append(Entry{"id": fmt.Sprintf("%d-%d", i, j)})
			}
		}(i)
	}
	wg.Wait()

	if l.Len() != 100 {
		t.Errorf("Len = %d, want 100", l.Len())
	}
}
