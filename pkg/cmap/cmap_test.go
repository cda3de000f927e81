package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestSetGet(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Set("b", 2)

	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v, want 1, true", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) should return false")
	}
}

func TestDelete(t *testing.T) {
	m := New[int]()
	m.Set("a", 1)
	m.Delete("a")

	if m.Has("a") {
		t.Error("key should be gone after Delete")
	}
	// Deleting a missing key is a no-op.
	m.Delete("a")
}

func TestPop(t *testing.T) {
	m := New[string]()
	m.Set("k", "v")

	v, ok := m.Pop("k")
	if !ok || v != "v" {
		t.Errorf("Pop(k) = %q, %v, want v, true", v, ok)
	}
	if _, ok := m.Pop("k"); ok {
		t.Error("second Pop should return false")
	}
}

func TestCount(t *testing.T) {
	m := New[int]()
	for i := 0; i < 100; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}
	if got := m.Count(); got != 100 {
		t.Errorf("Count() = %d, want 100", got)
	}

	m.Clear()
	if got := m.Count(); got != 0 {
		t.Errorf("Count() after Clear = %d, want 0", got)
	}
}

func TestKeys(t *testing.T) {
	m := New[int]()
	m.Set("b", 2)
	m.Set("a", 1)

	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}
}

func TestRange_Stop(t *testing.T) {
	m := New[int]()
	for i := 0; i < 10; i++ {
		m.Set(fmt.Sprintf("key-%d", i), i)
	}

	visited := 0
	m.Range(func(string, int) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("Range visited %d items, want 3", visited)
	}
}

func TestNewWithShards_InvalidCount(t *testing.T) {
	for _, count := range []int{0, -1, 3, 30} {
		m := NewWithShards[int](count)
		if len(m.shards) != DefaultShardCount {
			t.Errorf("NewWithShards(%d) shards = %d, want %d", count, len(m.shards), DefaultShardCount)
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("key-%d-%d", g, i)
				m.Set(key, i)
				m.Get(key)
				if i%2 == 0 {
					m.Delete(key)
				}
			}
		}(g)
	}
	wg.Wait()

	if got := m.Count(); got != 8*50 {
		t.Errorf("Count() = %d, want %d", got, 8*50)
	}
}
