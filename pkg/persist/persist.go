// Package persist implements the on-disk persisted-section store: a
// per-host keyed file recording sections whose validity outlives a single
// collection cycle.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/morph027/checkmk/internal/logger"
	"github.com/morph027/checkmk/pkg/accumulator"
	"github.com/morph027/checkmk/pkg/parsermetrics"
	"github.com/morph027/checkmk/pkg/payload"
	"github.com/morph027/checkmk/pkg/section"
)

// storeVersion is bumped whenever the on-disk envelope format changes.
const storeVersion = 1

// ErrStoreCorrupt is returned by Open when the store file exists but cannot
// be read or decoded.
var ErrStoreCorrupt = errors.New("persist: store file is corrupt")

// ErrPersist wraps I/O failures from Update.
var ErrPersist = errors.New("persist: failed to write store")

// Store is a per-host persisted-section store backed by a single file.
// It is not safe for concurrent use by multiple Store values pointed at the
// same path from different processes without an external advisory lock; see
// AdvisoryLock.
type Store struct {
	path    string
	entries map[section.Name]accumulator.Entry
	metrics *parsermetrics.Metrics
}

// SetMetrics attaches Prometheus instrumentation; passing nil disables it.
func (s *Store) SetMetrics(m *parsermetrics.Metrics) {
	s.metrics = m
}

// envelope is the self-delimiting, versioned on-disk format.
type envelope struct {
	Version  int                      `json:"version"`
	Sections map[string]entryOnDisk   `json:"sections"`
}

type entryOnDisk struct {
	CapturedAt int             `json:"captured_at"`
	ValidUntil int             `json:"valid_until"`
	Payload    [][]string      `json:"payload"`
}

// Open returns a Store bound to path, loading any existing content. A
// missing file is not an error: it yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[section.Name]accumulator.Entry)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %s", ErrStoreCorrupt, err)
	}
	if len(data) == 0 {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("%w: %s", ErrStoreCorrupt, err)
	}
	if env.Version != storeVersion {
		return fmt.Errorf("%w: unsupported store version %d", ErrStoreCorrupt, env.Version)
	}

	for name, e := range env.Sections {
		sectionName, err := section.NewName(name)
		if err != nil {
			return fmt.Errorf("%w: invalid section name %q", ErrStoreCorrupt, name)
		}
		rows := make([]payload.Row, len(e.Payload))
		for i, r := range e.Payload {
			rows[i] = payload.Row(r)
		}
		s.entries[sectionName] = accumulator.Entry{
			CapturedAt: e.CapturedAt,
			ValidUntil: e.ValidUntil,
			Payload:    rows,
		}
	}
	return nil
}

// Update writes fresh into the on-disk mapping, replacing any existing
// entry with the same section name, and persists atomically (write to a
// temp file in the same directory, then rename).
func (s *Store) Update(fresh map[section.Name]accumulator.Entry) error {
	for name, entry := range fresh {
		s.entries[name] = entry
	}

	env := envelope{Version: storeVersion, Sections: make(map[string]entryOnDisk, len(s.entries))}
	for name, entry := range s.entries {
		rows := make([][]string, len(entry.Payload))
		for i, r := range entry.Payload {
			rows[i] = []string(r)
		}
		env.Sections[string(name)] = entryOnDisk{
			CapturedAt: entry.CapturedAt,
			ValidUntil: entry.ValidUntil,
			Payload:    rows,
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}

	if err := s.writeAtomic(data); err != nil {
		return fmt.Errorf("%w: %s", ErrPersist, err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the store's directory and
// renames it into place, so readers always see either the prior complete
// state or the new complete state.
func (s *Store) writeAtomic(data []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed away

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, s.path)
}

// MergeInto merges this store's entries into acc: for every persisted
// entry, fresh sections already present in acc win (the entry is skipped);
// otherwise, if now is past valid_until and keepOutdated is false, the
// entry is dropped and logged; otherwise it is inserted.
func (s *Store) MergeInto(acc *accumulator.HostSections, now int, keepOutdated bool) {
	for name, entry := range s.entries {
		if acc.HasSection(name) {
			continue
		}
		if now > entry.ValidUntil && !keepOutdated {
			logger.Warn("persist: dropping expired section", "section", string(name), "valid_until", entry.ValidUntil, "now", now)
			s.metrics.ObserveExpiredEntry()
			s.metrics.ObserveStoreMerge("expired")
			continue
		}
		acc.InsertMerged(name, entry.Payload, accumulator.CacheInfo{
			CapturedAt: entry.CapturedAt,
			Interval:   entry.ValidUntil - entry.CapturedAt,
		})
		s.metrics.ObserveStoreMerge("ok")
	}
}
