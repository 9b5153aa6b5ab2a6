package distribution

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
)

// Store is a slot-addressed collection of approximated distributions,
// persisted as a gzip-compressed gob stream. The fingerprint ties a stored
// file to the data it was computed from; on mismatch the file is ignored and
// the distributions are recomputed. Slots are sparse: a map rather than a
// slice, so unfilled slots need no representation.
type Store struct {
	Fingerprint   uint64
	Slots         int
	Distributions map[int]*Approximated
}

// NewStore creates an empty store with n slots.
func NewStore(n int, fingerprint uint64) *Store {
	return &Store{
		Fingerprint:   fingerprint,
		Slots:         n,
		Distributions: make(map[int]*Approximated),
	}
}

// At returns the distribution in the given slot, or nil.
func (s *Store) At(i int) *Approximated { return s.Distributions[i] }

// Set fills the given slot.
func (s *Store) Set(i int, d *Approximated) {
	if s.Distributions == nil {
		s.Distributions = make(map[int]*Approximated)
	}
	s.Distributions[i] = d
}

// Save writes the store to the given path.
func (s *Store) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save distributions: %w", err)
	}
	zw := gzip.NewWriter(f)
	if err := gob.NewEncoder(zw).Encode(s); err != nil {
		_ = f.Close()
		return fmt.Errorf("save distributions: %w", err)
	}
	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("save distributions: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("save distributions: %w", err)
	}
	slog.Info("score distributions written", "path", path)
	return nil
}

// Load reads a store from the given path and checks it against the expected
// fingerprint. A missing file or a fingerprint mismatch is not an error:
// both return (nil, nil) so the caller recomputes.
func Load(path string, fingerprint uint64) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("load distributions: %w", err)
	}
	defer func() { _ = f.Close() }()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("load distributions: %w", err)
	}
	var s Store
	if err := gob.NewDecoder(zr).Decode(&s); err != nil {
		return nil, fmt.Errorf("load distributions: %w", err)
	}
	if s.Fingerprint != fingerprint {
		slog.Debug("score distribution fingerprint mismatch, recomputing", "path", path)
		return nil, nil
	}
	slog.Info("score distributions loaded", "path", path)
	return &s, nil
}
