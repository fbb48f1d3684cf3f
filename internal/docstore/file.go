package docstore

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"time"

	"github.com/maruel/plugindata/internal/errors"
)

// Load replaces the in-memory document with the content of the backing file.
//
// A missing file is created and loads as an empty document. On error the
// in-memory document is left as it was.
func (s *Store) Load() error {
	err := s.load()
	s.metrics.observeLoad(s.owner.Name(), s.name, err)
	return err
}

func (s *Store) load() error {
	if err := ensurePath(s.path); err != nil {
		return err
	}
	data, err := os.ReadFile(s.path) //nolint:gosec // G304: path is built from the resolved location and database name
	if err != nil && !os.IsNotExist(err) {
		return errors.StorageIO("read", s.path, err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return errors.Malformed(s.path, err)
	}
	s.mu.Lock()
	s.doc = doc
	n := doc.Len()
	s.mu.Unlock()
	s.metrics.setKeys(s.owner.Name(), s.name, n)
	s.log.Debug("Loaded document", "path", s.path, "keys", n, "bytes", len(data))
	return nil
}

// Save writes the in-memory document to the backing file, replacing its
// content.
//
// The document is written to a temporary file that is then renamed over the
// target, so the previous content survives a failed write.
func (s *Store) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	start := time.Now()
	err := s.save()
	s.metrics.observeSave(s.owner.Name(), s.name, time.Since(start), err)
	return err
}

func (s *Store) save() error {
	s.mu.RLock()
	data, err := s.codec.encodeDocument(s.doc)
	n := s.doc.Len()
	s.mu.RUnlock()
	if err != nil {
		return errors.Serialization("", err)
	}
	if err := ensurePath(s.path); err != nil {
		return err
	}
	if err := writeFile(s.path, data); err != nil {
		return errors.StorageIO("write", s.path, err)
	}
	s.metrics.setKeys(s.owner.Name(), s.name, n)
	s.log.Debug("Saved document", "path", s.path, "keys", n, "bytes", len(data))
	return nil
}

// ensurePath creates the parent directory of path and an empty file at path
// when they don't exist. It never modifies an existing file.
func ensurePath(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: 0o755 is intentional for data directories
		return errors.StorageIO("create directory", dir, err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // G302: data files are world readable
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return errors.StorageIO("create", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.StorageIO("create", path, err)
	}
	return nil
}

// writeFile is replaced in tests to simulate write failures.
var writeFile = writeFileAtomic

// writeFileAtomic writes data to a temporary file in the directory of path,
// syncs it and renames it to path.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := f.Name()
	if _, err := f.Write(data); err != nil {
		return stderrors.Join(err, f.Close(), os.Remove(tmpPath))
	}
	if err := f.Sync(); err != nil {
		return stderrors.Join(err, f.Close(), os.Remove(tmpPath))
	}
	if err := f.Close(); err != nil {
		return stderrors.Join(err, os.Remove(tmpPath))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil { //nolint:gosec // G302: data files are world readable
		return stderrors.Join(err, os.Remove(tmpPath))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return stderrors.Join(err, os.Remove(tmpPath))
	}
	return nil
}
