// Package datastore implements a file-backed JSON key-value store. All data is
// held in memory and flushed to a single JSON file with atomic writes
// (temp file + fsync + rename), so readers of the file never observe a
// partially written document. Saves of unchanged data are skipped via a
// content checksum.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Options tune a DataStore. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	FilePath         string
	AutoSaveInterval time.Duration // periodic flush; 0 disables the loop
	BackupCount      int           // rotated .backup files to keep, 0 disables
}

// DefaultOptions returns the standard configuration for the given file path.
func DefaultOptions(filePath string) Options {
	return Options{
		FilePath:         filePath,
		AutoSaveInterval: 10 * time.Second,
		BackupCount:      3,
	}
}

// DataStore is an in-memory map persisted to a JSON file.
type DataStore struct {
	mu           sync.RWMutex
	data         map[string]any
	file         string
	opts         Options
	lastChecksum string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeMu sync.Mutex
	closed  bool
}

// New opens (or creates) a store at filePath with default options.
func New(filePath string) (*DataStore, error) {
	return Open(DefaultOptions(filePath))
}

// Open opens (or creates) a store with the given options.
func Open(opts Options) (*DataStore, error) {
	if opts.FilePath == "" {
		return nil, fmt.Errorf("datastore: file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("datastore: create directory: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ds := &DataStore{
		data:   make(map[string]any),
		file:   opts.FilePath,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
	}

	switch _, err := os.Stat(opts.FilePath); {
	case os.IsNotExist(err):
		if err := ds.writeFileAtomic([]byte("{}\n")); err != nil {
			cancel()
			return nil, fmt.Errorf("datastore: init empty file: %w", err)
		}
	case err == nil:
		if err := ds.load(); err != nil {
			cancel()
			return nil, err
		}
	default:
		cancel()
		return nil, fmt.Errorf("datastore: stat %s: %w", opts.FilePath, err)
	}

	if opts.AutoSaveInterval > 0 {
		ds.wg.Add(1)
		go ds.autoSave()
	}
	return ds, nil
}

// Put stores a value under key. The value must be JSON-marshalable.
func (ds *DataStore) Put(key string, value any) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.data[key] = value
}

// Get returns the value stored under key.
func (ds *DataStore) Get(key string) (any, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	value, ok := ds.data[key]
	return value, ok
}

// Delete removes the value stored under key, if any.
func (ds *DataStore) Delete(key string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	delete(ds.data, key)
}

// Keys returns all stored keys in unspecified order.
func (ds *DataStore) Keys() []string {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	keys := make([]string, 0, len(ds.data))
	for k := range ds.data {
		keys = append(keys, k)
	}
	return keys
}

// SaveToFile flushes the current contents to disk. A no-op when the
// serialized contents match the last successful save.
func (ds *DataStore) SaveToFile() error {
	ds.closeMu.Lock()
	closed := ds.closed
	ds.closeMu.Unlock()
	if closed {
		return fmt.Errorf("datastore: store is closed")
	}
	return ds.save()
}

// Close stops the autosave loop and performs a final flush.
func (ds *DataStore) Close() error {
	ds.closeMu.Lock()
	if ds.closed {
		ds.closeMu.Unlock()
		return nil
	}
	ds.closed = true
	ds.closeMu.Unlock()

	ds.cancel()
	ds.wg.Wait()
	return ds.save()
}

func (ds *DataStore) save() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data, err := json.MarshalIndent(ds.data, "", "  ")
	if err != nil {
		return fmt.Errorf("datastore: marshal: %w", err)
	}

	sum := checksum(data)
	if sum == ds.lastChecksum {
		return nil
	}

	if ds.opts.BackupCount > 0 {
		if err := ds.backup(); err != nil {
			log.Printf("[WARN] datastore: backup failed: %v", err)
		}
	}

	if err := ds.writeFileAtomic(data); err != nil {
		return err
	}
	ds.lastChecksum = sum
	return nil
}

func (ds *DataStore) load() error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	data, err := os.ReadFile(ds.file)
	if err != nil {
		return fmt.Errorf("datastore: read %s: %w", ds.file, err)
	}
	var loaded map[string]any
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("datastore: %s is not valid JSON: %w", ds.file, err)
	}
	ds.data = loaded
	ds.lastChecksum = checksum(data)
	return nil
}

// writeFileAtomic writes data through a temp file, fsyncs it, and renames it
// over the target so readers of the file see either old or new contents.
func (ds *DataStore) writeFileAtomic(data []byte) error {
	tmp := ds.file + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("datastore: open temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("datastore: sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: close temp file: %w", err)
	}
	if err := os.Rename(tmp, ds.file); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("datastore: rename temp file: %w", err)
	}
	return nil
}

// backup copies the current file to a timestamped sibling and prunes old copies.
func (ds *DataStore) backup() error {
	if _, err := os.Stat(ds.file); os.IsNotExist(err) {
		return nil
	}

	src, err := os.Open(ds.file)
	if err != nil {
		return err
	}
	defer src.Close()

	name := fmt.Sprintf("%s.backup.%s", ds.file, time.Now().Format("20060102_150405"))
	dst, err := os.Create(name)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}

	ds.pruneBackups()
	return nil
}

func (ds *DataStore) pruneBackups() {
	matches, err := filepath.Glob(ds.file + ".backup.*")
	if err != nil || len(matches) <= ds.opts.BackupCount {
		return
	}
	// Timestamped names sort chronologically.
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-ds.opts.BackupCount] {
		os.Remove(path)
	}
}

func (ds *DataStore) autoSave() {
	defer ds.wg.Done()

	ticker := time.NewTicker(ds.opts.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ds.ctx.Done():
			return
		case <-ticker.C:
			if err := ds.save(); err != nil {
				log.Printf("[ERR] datastore: autosave: %v", err)
			}
		}
	}
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
