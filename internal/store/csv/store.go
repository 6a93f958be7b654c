// Package csv persists per-target candle series and their derived
// trailing-stop rows as CSV files. Merges are idempotent (dedup by timestamp,
// last write wins) and serialized per output path, so concurrent workers on
// different targets never block each other.
package csv

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"signal-systemv1/internal/indicator"
	"signal-systemv1/internal/model"
)

var rawHeader = []string{"ts", "open", "high", "low", "close", "volume"}
var derivedHeader = []string{"ts", "src", "ma", "stop", "buy", "sell"}

// Store owns a directory of series files, one raw and one derived file per
// target key.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create series dir: %w", err)
	}
	return &Store{dir: dir, locks: make(map[string]*sync.Mutex)}, nil
}

// pathLock returns the mutex guarding one output path, creating it lazily.
func (s *Store) pathLock(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[path]
	if !ok {
		l = &sync.Mutex{}
		s.locks[path] = l
	}
	return l
}

func (s *Store) rawPath(t model.Target) string {
	return filepath.Join(s.dir, t.Key()+".csv")
}

func (s *Store) derivedPath(t model.Target) string {
	return filepath.Join(s.dir, t.Key()+"_trailing.csv")
}

// Merge folds incoming candles into the target's persisted series and
// returns the merged result. The read-merge-write runs under the path lock.
func (s *Store) Merge(t model.Target, incoming model.Series) (model.Series, error) {
	path := s.rawPath(t)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.loadLocked(path)
	if err != nil {
		return nil, err
	}
	merged := existing.Merge(incoming)
	if err := s.writeRawLocked(path, merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Load reads the target's full persisted series; a missing file is an empty
// series, not an error.
func (s *Store) Load(t model.Target) (model.Series, error) {
	path := s.rawPath(t)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()
	return s.loadLocked(path)
}

// Tail returns the last n candles of the persisted series.
func (s *Store) Tail(t model.Target, n int) (model.Series, error) {
	series, err := s.Load(t)
	if err != nil {
		return nil, err
	}
	return series.Tail(n), nil
}

// WriteDerived persists the trailing-stop rows for a target, aligned with
// the series the result was computed from.
func (s *Store) WriteDerived(t model.Target, series model.Series, res indicator.TrailingStopResult) error {
	if len(series) != res.Len() {
		return fmt.Errorf("derived rows (%d) do not match series length (%d)", res.Len(), len(series))
	}
	path := s.derivedPath(t)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	rows := make([][]string, 0, len(series)+1)
	rows = append(rows, derivedHeader)
	for i, c := range series {
		rows = append(rows, []string{
			strconv.FormatInt(c.TS, 10),
			formatFloat(res.Src[i]),
			formatFloat(res.MA[i]),
			formatFloat(res.Stop[i]),
			strconv.FormatBool(res.Buy[i]),
			strconv.FormatBool(res.Sell[i]),
		})
	}
	return writeAtomic(path, rows)
}

func (s *Store) loadLocked(path string) (model.Series, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open series %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read series %s: %w", path, err)
	}
	series := make(model.Series, 0, len(records))
	for i, rec := range records {
		if i == 0 && len(rec) > 0 && rec[0] == "ts" {
			continue
		}
		if len(rec) < 6 {
			log.Printf("[csvstore] skipping malformed row %d in %s", i, path)
			continue
		}
		c, err := parseRow(rec)
		if err != nil {
			log.Printf("[csvstore] skipping row %d in %s: %v", i, path, err)
			continue
		}
		series = append(series, c)
	}
	return series, nil
}

func (s *Store) writeRawLocked(path string, series model.Series) error {
	rows := make([][]string, 0, len(series)+1)
	rows = append(rows, rawHeader)
	for _, c := range series {
		rows = append(rows, []string{
			strconv.FormatInt(c.TS, 10),
			formatFloat(c.Open),
			formatFloat(c.High),
			formatFloat(c.Low),
			formatFloat(c.Close),
			formatFloat(c.Volume),
		})
	}
	return writeAtomic(path, rows)
}

// writeAtomic writes rows to a temp file in the same directory and renames
// it over the destination, so readers never observe a half-written file.
func writeAtomic(path string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("temp file for %s: %w", path, err)
	}
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

func parseRow(rec []string) (model.Candle, error) {
	var (
		c   model.Candle
		err error
	)
	if c.TS, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
		return c, err
	}
	if c.Open, err = strconv.ParseFloat(rec[1], 64); err != nil {
		return c, err
	}
	if c.High, err = strconv.ParseFloat(rec[2], 64); err != nil {
		return c, err
	}
	if c.Low, err = strconv.ParseFloat(rec[3], 64); err != nil {
		return c, err
	}
	if c.Close, err = strconv.ParseFloat(rec[4], 64); err != nil {
		return c, err
	}
	if c.Volume, err = strconv.ParseFloat(rec[5], 64); err != nil {
		return c, err
	}
	return c, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
