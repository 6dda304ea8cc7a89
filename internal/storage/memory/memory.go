// internal/storage/memory/memory.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/falconvolei/quadro/internal/config"
	"github.com/falconvolei/quadro/internal/storage"
)

// Backend keeps records in memory and mirrors them to a JSON file on every
// write. The file holds one object mapping keys to their string values, the
// same shape as a browser localStorage dump. An empty path disables the
// file.
type Backend struct {
	cfg     config.MemoryConfig
	logger  *slog.Logger
	records map[string]string
	mu      sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig, logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{
		cfg:     cfg,
		logger:  logger,
		records: make(map[string]string),
	}
}

// Init loads the mirror file if it exists. An unreadable file is logged and
// the backend starts empty; the next write replaces it.
func (b *Backend) Init() error {
	if b.cfg.Path == "" {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	records, err := b.readFile()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		b.logger.Warn("discarding unreadable state file", "path", b.cfg.Path, "error", err)
		return nil
	}
	b.records = records
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// Get returns the value stored under key.
func (b *Backend) Get(key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	v, ok := b.records[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, storage.ErrNotFound)
	}
	return []byte(v), nil
}

// Put stores value under key and rewrites the mirror file.
func (b *Backend) Put(key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[key] = string(value)
	if b.cfg.Path == "" {
		return nil
	}
	return b.writeFile()
}

// Keys returns the number of stored records.
func (b *Backend) Keys() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

func (b *Backend) readFile() (map[string]string, error) {
	f, err := os.Open(b.cfg.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if b.cfg.Compress {
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return nil, err
		}
		defer gzReader.Close()
		r = gzReader
	}

	records := make(map[string]string)
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// writeFile replaces the mirror file through a temporary file in the same
// directory, so a crash mid-write leaves the previous file intact.
func (b *Backend) writeFile() error {
	dir := filepath.Dir(b.cfg.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.CreateTemp(dir, filepath.Base(b.cfg.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmp := f.Name()

	if err := b.encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, b.cfg.Path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", b.cfg.Path, err)
	}
	return nil
}

func (b *Backend) encode(w io.Writer) error {
	if !b.cfg.Compress {
		return json.NewEncoder(w).Encode(b.records)
	}

	gzWriter := gzip.NewWriter(w)
	if err := json.NewEncoder(gzWriter).Encode(b.records); err != nil {
		gzWriter.Close()
		return err
	}
	return gzWriter.Close()
}
