package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/snafflertools/consolidator/pkg/scanlog"
)

// ErrNoData is returned when a consumer reads the store before any
// successful ingest has populated it.
var ErrNoData = errors.New("no parsed data loaded")

const storeFileName = "parsed_entries.jsonl"

// Config contains configuration for the intermediate store.
type Config struct {
	// Dir is the directory holding the session files. Empty means a fresh
	// temporary directory per process.
	Dir string `json:"dir" yaml:"dir" default:""`
}

// Store is the append-only intermediate store for one ingest session:
// one JSON document per extracted record, re-read in append order. A new
// generation replaces the previous one wholesale; there are no in-place
// updates.
type Store struct {
	dir  string
	path string
}

// New creates a store rooted at cfg.Dir, creating a temporary session
// directory when none is configured.
func New(cfg *Config) (*Store, error) {
	dir := ""
	if cfg != nil {
		dir = cfg.Dir
	}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "snaffler-consolidator-")
		if err != nil {
			return nil, fmt.Errorf("failed to create session dir: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	return &Store{dir: dir, path: filepath.Join(dir, storeFileName)}, nil
}

// Dir returns the session directory. The upload collaborator places its
// files alongside the store.
func (s *Store) Dir() string {
	return s.dir
}

// Ready reports whether a parsed generation exists.
func (s *Store) Ready() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Begin truncates any prior generation and returns a writer for the new one.
// Invalidating the old store before writing prevents mixed-generation reads.
func (s *Store) Begin() (*Writer, error) {
	f, err := os.Create(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store for writing: %w", err)
	}
	buf := bufio.NewWriterSize(f, 64*1024)
	return &Writer{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

// Scan re-reads the store sequentially in append order, invoking fn per
// record until fn returns false or the store is exhausted. Only one record
// is held in memory at a time.
func (s *Store) Scan(fn func(rec *scanlog.Record) bool) error {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNoData
		}
		return fmt.Errorf("failed to open store for reading: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReaderSize(f, 64*1024))
	for {
		rec := &scanlog.Record{}
		if err := dec.Decode(rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to decode stored record: %w", err)
		}
		if !fn(rec) {
			return nil
		}
	}
}

// Clear discards the current generation. Clearing an empty store succeeds.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear store: %w", err)
	}
	return nil
}

// Writer appends records to a store generation opened by Begin.
type Writer struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
}

// Append serializes one record onto the store.
func (w *Writer) Append(rec *scanlog.Record) error {
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Close flushes and closes the generation. The records become visible to
// Scan as they are flushed; callers must not read while a writer is open.
func (w *Writer) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("failed to flush store: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	return nil
}
