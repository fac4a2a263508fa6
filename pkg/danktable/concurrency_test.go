package danktable_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/itzkitb/DankTables/pkg/danktable"
)

func Test_Store_Keeps_All_Lines_When_Writers_Race_On_Same_Path(t *testing.T) {
	t.Parallel()

	const writers = 8

	s, err := danktable.New(danktable.Config{})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "race.dank")

	err = s.Create(path, []string{"id", "who"}, "id")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		w := w

		wg.Add(1)

		go func() {
			defer wg.Done()

			_, addErr := s.AddLine(path, map[string]any{
				"id":  fmt.Sprintf("w-%d", w),
				"who": w,
			})
			if addErr != nil {
				t.Errorf("AddLine: %v", addErr)
			}
		}()
	}

	wg.Wait()

	n, err := s.LineCount(path)
	if err != nil {
		t.Fatal(err)
	}

	if n != writers {
		t.Fatalf("line count = %d, want %d (lost update)", n, writers)
	}

	// Cold reload agrees.
	cold, err := danktable.New(danktable.Config{})
	if err != nil {
		t.Fatal(err)
	}

	coldN, err := cold.LineCount(path)
	if err != nil {
		t.Fatal(err)
	}

	if coldN != writers {
		t.Fatalf("cold line count = %d, want %d", coldN, writers)
	}
}

func Test_Store_Allows_Parallel_Writers_When_Paths_Differ(t *testing.T) {
	t.Parallel()

	const tables = 6

	s, err := danktable.New(danktable.Config{})
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()

	var wg sync.WaitGroup

	for i := 0; i < tables; i++ {
		i := i

		wg.Add(1)

		go func() {
			defer wg.Done()

			path := filepath.Join(dir, fmt.Sprintf("t-%d.dank", i))

			createErr := s.Create(path, []string{"id", "v"}, "id")
			if createErr != nil {
				t.Errorf("Create: %v", createErr)

				return
			}

			for j := 0; j < 10; j++ {
				_, addErr := s.AddLine(path, map[string]any{"id": j, "v": j * i})
				if addErr != nil {
					t.Errorf("AddLine: %v", addErr)

					return
				}
			}
		}()
	}

	wg.Wait()

	for i := 0; i < tables; i++ {
		path := filepath.Join(dir, fmt.Sprintf("t-%d.dank", i))

		n, countErr := s.LineCount(path)
		if countErr != nil {
			t.Fatal(countErr)
		}

		if n != 10 {
			t.Fatalf("table %d line count = %d, want 10", i, n)
		}
	}
}

func Test_Store_Serves_Consistent_Snapshots_When_Readers_Race_With_Writers(t *testing.T) {
	t.Parallel()

	s, err := danktable.New(danktable.Config{})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "rw.dank")

	err = s.Create(path, []string{"id", "n"}, "id")
	if err != nil {
		t.Fatal(err)
	}

	_, err = s.AddLine(path, map[string]any{"id": 1, "n": 0})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := 0; i < 50; i++ {
			editErr := s.EditData(path, 1, "n", i)
			if editErr != nil {
				t.Errorf("EditData: %v", editErr)

				return
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for k := 0; k < 50; k++ {
				_, getErr := danktable.GetData[int](s, path, 1, "n")
				if getErr != nil {
					t.Errorf("GetData: %v", getErr)

					return
				}
			}
		}()
	}

	wg.Wait()

	final, err := danktable.GetData[int](s, path, 1, "n")
	if err != nil {
		t.Fatal(err)
	}

	if final != 49 {
		t.Fatalf("final n = %d, want 49", final)
	}
}
