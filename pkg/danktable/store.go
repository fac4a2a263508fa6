package danktable

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/itzkitb/DankTables/pkg/fs"
)

// lockSuffix is appended to the table path to form its advisory lock
// file. The lock file is stable on disk; it is never renamed or replaced
// while locks may be held.
const lockSuffix = ".lock"

const tablePerms = os.FileMode(0o644)

// errNoChange is returned by a mutate callback to commit nothing: no
// rewrite, no cache update, nil error to the caller.
var errNoChange = errors.New("no change")

// Config configures a [Store].
type Config struct {
	// FS is the filesystem implementation. Defaults to [fs.NewReal].
	FS fs.FS

	// CacheCapacity bounds the table cache (count of tables, not bytes).
	// Values <= 0 use [DefaultCacheCapacity].
	CacheCapacity int

	// Separator is the cell delimiter stamped into newly created tables.
	// Defaults to [DefaultSeparator]. Existing tables keep the separator
	// recorded in their settings line.
	Separator string

	// LockFiles enables flock-based lock files ("<table>.lock") around
	// writes for cross-process serialization. In-process serialization
	// via the per-path mutex registry is always on.
	LockFiles bool
}

// Store is the table CRUD engine.
//
// Every operation takes a table file path and runs a full cycle: cache
// lookup, parse on miss, mutate an in-memory clone, atomically rewrite
// the file, update the cache in place. No operation partially applies: a
// failure anywhere leaves both the file and the cache as they were.
//
// Safe for concurrent use. Writers on the same path are serialized by a
// per-path mutex (plus an optional flock lock file for cross-process
// callers); writers on different paths never contend. Cached tables are
// immutable snapshots, so readers need no lock on the hit path.
type Store struct {
	fs        fs.FS
	cache     *Cache
	locker    *fs.Locker
	lockFiles bool
	separator string

	// mu guards paths. Per-path mutexes are created on demand and kept
	// for the life of the store; the registry is bounded by the number of
	// distinct paths touched.
	mu    sync.Mutex
	paths map[string]*sync.Mutex
}

// New creates a store from cfg.
func New(cfg Config) (*Store, error) {
	if cfg.FS == nil {
		cfg.FS = fs.NewReal()
	}

	sep := cfg.Separator
	if sep == "" {
		sep = DefaultSeparator
	}

	err := validateSeparator(sep)
	if err != nil {
		return nil, err
	}

	return &Store{
		fs:        cfg.FS,
		cache:     NewCache(cfg.CacheCapacity),
		locker:    fs.NewLocker(cfg.FS),
		lockFiles: cfg.LockFiles,
		separator: sep,
		paths:     make(map[string]*sync.Mutex),
	}, nil
}

// Create writes a fresh, empty table at path, replacing any existing
// file and any stale cache entry.
//
// Fails if keyRow is not in rows, any row name is invalid, or rows
// contains duplicates.
func (s *Store) Create(path string, rows []string, keyRow string) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: empty row list", ErrInvalidRowName)
	}

	seen := make(map[string]struct{}, len(rows))

	for _, name := range rows {
		err := validateRowName(name)
		if err != nil {
			return err
		}

		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate row %q", ErrRowExists, name)
		}

		seen[name] = struct{}{}
	}

	if _, ok := seen[keyRow]; !ok {
		return fmt.Errorf("%w: key row %q", ErrKeyRowMissing, keyRow)
	}

	t := &Table{
		Schema: Schema{KeyRow: keyRow, Separator: s.separator, Version: FormatVersion},
		Rows:   append([]string(nil), rows...),
	}

	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	unlock, err := s.flock(path)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.writeTable(path, t)
	if err != nil {
		return err
	}

	s.cache.Put(path, t)

	return nil
}

// AddRow appends a row to the table's row definition. Every existing
// line's new cell is set to the absent marker.
//
// Fails if name is invalid or already present. Uses the identical
// validation rule as [Store.Create].
func (s *Store) AddRow(path, name string) error {
	return s.update(path, func(t *Table) error {
		err := validateRowName(name)
		if err != nil {
			return err
		}

		if t.HasRow(name) {
			return fmt.Errorf("%w: %q", ErrRowExists, name)
		}

		t.Rows = append(t.Rows, name)

		for _, line := range t.Lines {
			line[name] = Absent()
		}

		return nil
	})
}

// AddRows applies [Store.AddRow] sequentially. The batch is not atomic:
// a failure partway leaves earlier additions committed.
func (s *Store) AddRows(path string, names []string) error {
	for _, name := range names {
		err := s.AddRow(path, name)
		if err != nil {
			return err
		}
	}

	return nil
}

// RemoveRow removes a row from the row definition and drops its cell
// from every line.
//
// Fails if name is the key row (the key row is immutable) or does not
// exist.
func (s *Store) RemoveRow(path, name string) error {
	return s.update(path, func(t *Table) error {
		if name == t.Schema.KeyRow {
			return fmt.Errorf("%w: %q", ErrKeyRowImmutable, name)
		}

		if !t.HasRow(name) {
			return fmt.Errorf("%w: %q", ErrRowNotFound, name)
		}

		rows := t.Rows[:0]

		for _, r := range t.Rows {
			if r != name {
				rows = append(rows, r)
			}
		}

		t.Rows = rows

		for _, line := range t.Lines {
			delete(line, name)
		}

		return nil
	})
}

// RemoveRows applies [Store.RemoveRow] sequentially. Not atomic across
// the batch.
func (s *Store) RemoveRows(path string, names []string) error {
	for _, name := range names {
		err := s.RemoveRow(path, name)
		if err != nil {
			return err
		}
	}

	return nil
}

// AddLine appends a new line built from data and returns the key value
// it was stored under.
//
// Rows not present in data are stored as the absent marker. Fails if
// data names a row outside the row definition.
//
// If data omits the key row (or supplies the absent marker for it), the
// key is auto-generated by scanning existing key values for the numeric
// maximum and incrementing. Non-numeric key values are skipped during
// the scan; auto-generation on a table with non-numeric keys is
// undefined, supply an explicit key instead.
func (s *Store) AddLine(path string, data map[string]any) (Value, error) {
	var key Value

	err := s.update(path, func(t *Table) error {
		line := make(Line, len(t.Rows))

		for _, row := range t.Rows {
			line[row] = Absent()
		}

		for row, raw := range data {
			if !t.HasRow(row) {
				return fmt.Errorf("%w: %q", ErrRowNotFound, row)
			}

			v, err := FromGo(raw)
			if err != nil {
				return err
			}

			line[row] = v
		}

		if line[t.Schema.KeyRow].IsAbsent() {
			line[t.Schema.KeyRow] = nextKey(t)
		}

		key = line[t.Schema.KeyRow]
		t.Lines = append(t.Lines, line)

		return nil
	})
	if err != nil {
		return Value{}, err
	}

	return key, nil
}

// nextKey scans existing key row values for the numeric maximum and
// returns max+1. An empty table starts at 1.
func nextKey(t *Table) Value {
	var maxKey float64

	for _, line := range t.Lines {
		f, err := strconv.ParseFloat(line[t.Schema.KeyRow].StringForm(), 64)
		if err != nil {
			continue
		}

		if f > maxKey {
			maxKey = f
		}
	}

	return Number(math.Floor(maxKey) + 1)
}

// RemoveLine removes the line whose key row value matches id (compared
// by external string form).
//
// Deletes are idempotent: a missing line is a successful no-op, and
// nothing is rewritten.
func (s *Store) RemoveLine(path string, id any) error {
	idStr, err := stringForm(id)
	if err != nil {
		return err
	}

	return s.update(path, func(t *Table) error {
		idx := t.findLine(idStr)
		if idx < 0 {
			return errNoChange
		}

		t.Lines = append(t.Lines[:idx], t.Lines[idx+1:]...)

		return nil
	})
}

// EditData replaces exactly one cell of the line matching id.
//
// Fails with [ErrRowNotFound] if row is not in the row definition and
// [ErrLineNotFound] if no line matches id.
func (s *Store) EditData(path string, id any, row string, value any) error {
	idStr, err := stringForm(id)
	if err != nil {
		return err
	}

	v, err := FromGo(value)
	if err != nil {
		return err
	}

	return s.update(path, func(t *Table) error {
		if !t.HasRow(row) {
			return fmt.Errorf("%w: %q", ErrRowNotFound, row)
		}

		idx := t.findLine(idStr)
		if idx < 0 {
			return fmt.Errorf("%w: key %q", ErrLineNotFound, idStr)
		}

		t.Lines[idx][row] = v

		return nil
	})
}

// GetValue returns the raw cell for the line matching id. The absent
// marker is returned as-is; use [GetData] for typed access with
// zero-value defaults.
func (s *Store) GetValue(path string, id any, row string) (Value, error) {
	idStr, err := stringForm(id)
	if err != nil {
		return Value{}, err
	}

	t, err := s.load(path)
	if err != nil {
		return Value{}, err
	}

	if !t.HasRow(row) {
		return Value{}, fmt.Errorf("%w: %q", ErrRowNotFound, row)
	}

	idx := t.findLine(idStr)
	if idx < 0 {
		return Value{}, fmt.Errorf("%w: key %q", ErrLineNotFound, idStr)
	}

	return t.Lines[idx][row], nil
}

// GetData returns the cell for the line matching id converted to T.
//
// An absent cell returns the zero value of T and no error. A conversion
// failure returns [ErrTypeMismatch]; an unreadable cell returns
// [ErrCellUnreadable]. Both are distinct from "absent".
func GetData[T any](s *Store, path string, id any, row string) (T, error) {
	var zero T

	v, err := s.GetValue(path, id, row)
	if err != nil {
		return zero, err
	}

	if v.IsAbsent() {
		return zero, nil
	}

	if v.IsUnreadable() {
		return zero, fmt.Errorf("%w: row %q", ErrCellUnreadable, row)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("row %q: %w", row, err)
	}

	var out T

	err = json.Unmarshal(data, &out)
	if err != nil {
		return zero, fmt.Errorf("%w: row %q: %v", ErrTypeMismatch, row, err)
	}

	return out, nil
}

// GetLine returns every cell of the line matching id, keyed by row name.
// Cells without a value hold the absent marker (the zero [Value]).
func (s *Store) GetLine(path string, id any) (map[string]Value, error) {
	idStr, err := stringForm(id)
	if err != nil {
		return nil, err
	}

	t, err := s.load(path)
	if err != nil {
		return nil, err
	}

	idx := t.findLine(idStr)
	if idx < 0 {
		return nil, fmt.Errorf("%w: key %q", ErrLineNotFound, idStr)
	}

	out := make(map[string]Value, len(t.Rows))

	for _, row := range t.Rows {
		out[row] = t.Lines[idx][row]
	}

	return out, nil
}

// GetAllData returns every line keyed by its key row value's string
// form.
//
// Known limitation: two lines sharing a key value silently overwrite
// each other in the result, later line wins. The store does not enforce
// key uniqueness.
func (s *Store) GetAllData(path string) (map[string]map[string]Value, error) {
	t, err := s.load(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]Value, len(t.Lines))

	for _, line := range t.Lines {
		entry := make(map[string]Value, len(t.Rows))

		for _, row := range t.Rows {
			entry[row] = line[row]
		}

		out[line[t.Schema.KeyRow].StringForm()] = entry
	}

	return out, nil
}

// Rows returns the table's ordered row definition.
func (s *Store) Rows(path string) ([]string, error) {
	t, err := s.load(path)
	if err != nil {
		return nil, err
	}

	return append([]string(nil), t.Rows...), nil
}

// KeyRow returns the table's key row name.
func (s *Store) KeyRow(path string) (string, error) {
	t, err := s.load(path)
	if err != nil {
		return "", err
	}

	return t.Schema.KeyRow, nil
}

// LineCount returns the number of stored lines.
func (s *Store) LineCount(path string) (int, error) {
	t, err := s.load(path)
	if err != nil {
		return 0, err
	}

	return len(t.Lines), nil
}

// DeleteTable removes the table file and its cache entry. Removing a
// table that doesn't exist is a no-op. The lock file, if any, is removed
// as well.
func (s *Store) DeleteTable(path string) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	err := s.fs.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing table %q: %w", path, err)
	}

	if s.lockFiles {
		rmErr := s.fs.Remove(path + lockSuffix)
		if rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("removing lock file: %w", rmErr)
		}
	}

	s.cache.Invalidate(path)

	return nil
}

// Invalidate drops the cache entry for path. Use it when the file was
// modified out-of-band; the store never detects that itself.
func (s *Store) Invalidate(path string) {
	s.cache.Invalidate(path)
}

// ClearCache drops every cache entry.
func (s *Store) ClearCache() {
	s.cache.Clear()
}

// CachedTables returns the number of tables currently cached.
func (s *Store) CachedTables() int {
	return s.cache.Len()
}

// update runs one read-modify-write cycle on the table at path.
//
// mutate receives a clone of the current table. On success the clone is
// rendered, atomically written, and put into the cache; on failure (or
// errNoChange) both file and cache stay untouched.
func (s *Store) update(path string, mutate func(*Table) error) error {
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	unlock, err := s.flock(path)
	if err != nil {
		return err
	}
	defer unlock()

	current, err := s.loadLocked(path)
	if err != nil {
		return err
	}

	next := current.Clone()

	err = mutate(next)
	if err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}

		return err
	}

	err = s.writeTable(path, next)
	if err != nil {
		return err
	}

	s.cache.Put(path, next)

	return nil
}

// load returns the table for path, from cache or disk.
//
// The hit path takes no per-path lock: cached tables are immutable
// snapshots. On miss the per-path lock is taken before reading so a
// stale read can never overwrite a concurrent writer's cache update.
func (s *Store) load(path string) (*Table, error) {
	if t, ok := s.cache.Get(path); ok {
		return t, nil
	}

	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	return s.loadLocked(path)
}

// loadLocked is load for callers already holding the per-path lock.
func (s *Store) loadLocked(path string) (*Table, error) {
	if t, ok := s.cache.Get(path); ok {
		return t, nil
	}

	data, err := s.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading table %q: %w", path, err)
	}

	t, err := ParseTable(data)
	if err != nil {
		return nil, fmt.Errorf("parsing table %q: %w", path, err)
	}

	s.cache.Put(path, t)

	return t, nil
}

func (s *Store) writeTable(path string, t *Table) error {
	data, err := RenderTable(t)
	if err != nil {
		return err
	}

	err = s.fs.WriteFileAtomic(path, data, tablePerms)
	if err != nil {
		return fmt.Errorf("writing table %q: %w", path, err)
	}

	return nil
}

// flock takes the cross-process lock file for path when enabled.
// Returns a release func; a no-op when lock files are disabled.
func (s *Store) flock(path string) (func(), error) {
	if !s.lockFiles {
		return func() {}, nil
	}

	flk, err := s.locker.Lock(path + lockSuffix)
	if err != nil {
		return nil, fmt.Errorf("locking %q: %w", path+lockSuffix, err)
	}

	return func() { _ = flk.Close() }, nil
}

// pathLock returns the mutex for path, creating it on first use.
func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.paths[path]
	if !ok {
		m = &sync.Mutex{}
		s.paths[path] = m
	}

	return m
}

// stringForm converts a caller-supplied key to its external string form.
func stringForm(id any) (string, error) {
	v, err := FromGo(id)
	if err != nil {
		return "", err
	}

	return v.StringForm(), nil
}
