package danktable_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/itzkitb/DankTables/pkg/danktable"
)

func tableNamed(key string) *danktable.Table {
	return &danktable.Table{
		Schema: danktable.Schema{KeyRow: "id", Separator: ":", Version: danktable.FormatVersion},
		Rows:   []string{"id"},
		Lines: []danktable.Line{
			{"id": danktable.String(key)},
		},
	}
}

func Test_Cache_Get_Returns_Miss_When_Path_Never_Put(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(4)

	_, ok := c.Get("/tmp/none.dank")
	if ok {
		t.Fatal("expected miss")
	}
}

func Test_Cache_Put_Replaces_Entry_In_Place_When_Path_Exists(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(4)

	c.Put("/t/a.dank", tableNamed("old"))
	c.Put("/t/a.dank", tableNamed("new"))

	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}

	got, ok := c.Get("/t/a.dank")
	if !ok {
		t.Fatal("expected hit")
	}

	if got.Lines[0]["id"].StringForm() != "new" {
		t.Fatalf("cached table = %v, want replacement", got.Lines[0]["id"])
	}
}

func Test_Cache_Evicts_Least_Recently_Used_When_Over_Capacity(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(3)

	c.Put("a", tableNamed("a"))
	c.Put("b", tableNamed("b"))
	c.Put("c", tableNamed("c"))

	// Touch "a" so "b" becomes the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	c.Put("d", tableNamed("d"))

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}

	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Fatalf("%s should still be cached", key)
		}
	}
}

func Test_Cache_Counts_Put_As_Access_When_Ordering_Evictions(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(2)

	c.Put("a", tableNamed("a"))
	c.Put("b", tableNamed("b"))

	// Replacing "a" marks it most recently used; "b" is now the victim.
	c.Put("a", tableNamed("a2"))
	c.Put("c", tableNamed("c"))

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}

	if _, ok := c.Get("a"); !ok {
		t.Fatal("a should still be cached")
	}
}

func Test_Cache_Invalidate_Removes_Single_Entry_When_Called(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(4)

	c.Put("a", tableNamed("a"))
	c.Put("b", tableNamed("b"))

	c.Invalidate("a")
	c.Invalidate("a") // idempotent

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should be gone")
	}

	if _, ok := c.Get("b"); !ok {
		t.Fatal("b should remain")
	}
}

func Test_Cache_StoredAt_Tracks_Population_Time_When_Entry_Replaced(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(4)

	if _, ok := c.StoredAt("a"); ok {
		t.Fatal("missing entry should have no timestamp")
	}

	c.Put("a", tableNamed("a"))

	first, ok := c.StoredAt("a")
	if !ok {
		t.Fatal("expected timestamp after put")
	}

	c.Put("a", tableNamed("a2"))

	second, ok := c.StoredAt("a")
	if !ok {
		t.Fatal("expected timestamp after replacement")
	}

	if second.Before(first) {
		t.Fatalf("replacement timestamp %v before original %v", second, first)
	}
}

func Test_Cache_Clear_Drops_All_Entries_When_Called(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(4)

	c.Put("a", tableNamed("a"))
	c.Put("b", tableNamed("b"))

	c.Clear()

	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0", c.Len())
	}
}

func Test_Cache_Uses_Default_Capacity_When_Capacity_Not_Positive(t *testing.T) {
	t.Parallel()

	c := danktable.NewCache(0)

	for i := 0; i < danktable.DefaultCacheCapacity+10; i++ {
		c.Put(fmt.Sprintf("t-%d", i), tableNamed("x"))
	}

	if c.Len() != danktable.DefaultCacheCapacity {
		t.Fatalf("len = %d, want %d", c.Len(), danktable.DefaultCacheCapacity)
	}
}

// Exercises the recency list under concurrent readers and writers on
// overlapping keys. Run with -race; correctness here is "no corruption
// and bounded occupancy", not a specific final ordering.
func Test_Cache_Stays_Bounded_When_Accessed_Concurrently(t *testing.T) {
	t.Parallel()

	const (
		capacity   = 8
		goroutines = 16
		iterations = 200
	)

	c := danktable.NewCache(capacity)

	var wg sync.WaitGroup

	for g := 0; g < goroutines; g++ {
		g := g

		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := 0; i < iterations; i++ {
				key := fmt.Sprintf("t-%d", (g+i)%12)

				if i%3 == 0 {
					c.Put(key, tableNamed(key))
				} else {
					c.Get(key)
				}

				if i%50 == 0 {
					c.Invalidate(key)
				}
			}
		}()
	}

	wg.Wait()

	if c.Len() > capacity {
		t.Fatalf("len = %d, exceeds capacity %d", c.Len(), capacity)
	}
}
