// Package notestore keeps notes as plain-text files in a single directory,
// next to an index file that holds the registry counter.
package notestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const (
	// Ext is the extension shared by every note file.
	Ext = ".txt"

	// IndexFile holds the decimal counter. It shares Ext with the notes
	// and is filtered out of listings.
	IndexFile = "note_index.txt"
)

var (
	// ErrNotFound is returned when reading a note file that does not exist.
	ErrNotFound = errors.New("note file not found")
	// ErrIO wraps filesystem failures (mkdir, write, rename, delete).
	ErrIO = errors.New("note file i/o failed")
	// ErrInvalidHandle is returned for handles that would leave the directory.
	ErrInvalidHandle = errors.New("invalid note file handle")
)

// Store reads and writes note files under Dir.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created lazily on the
// first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the notes directory.
func (s *Store) Dir() string { return s.dir }

// unsafeRun matches the characters Sanitize folds into a single '_'.
var unsafeRun = regexp.MustCompile(`[ #]+`)

// Sanitize maps an identity to its file handle: each run of spaces and '#'
// becomes one '_' and Ext is appended, so "Note #3" is "Note_3.txt".
func Sanitize(identity string) string {
	return unsafeRun.ReplaceAllString(identity, "_") + Ext
}

// Stem strips Ext from a handle.
func Stem(handle string) string {
	return strings.TrimSuffix(handle, Ext)
}

// Path returns the absolute location of handle inside the store.
func (s *Store) Path(handle string) string {
	return filepath.Join(s.dir, handle)
}

func checkHandle(handle string) error {
	if handle == "" || handle == "." || handle == ".." ||
		strings.ContainsAny(handle, `/\`) || handle != filepath.Base(handle) {
		return fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return nil
}

func (s *Store) ensureDir() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("%w: create dir: %w", ErrIO, err)
	}
	return nil
}

// Write creates or replaces handle with content. The bytes are staged in a
// temp file and renamed into place.
func (s *Store) Write(handle, content string) error {
	if err := checkHandle(handle); err != nil {
		return err
	}
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := writeAtomic(s.Path(handle), []byte(content)); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrIO, handle, err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Read returns the full content of handle.
func (s *Store) Read(handle string) (string, error) {
	if err := checkHandle(handle); err != nil {
		return "", err
	}
	data, err := os.ReadFile(s.Path(handle))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, handle)
	}
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrIO, handle, err)
	}
	return string(data), nil
}

// Exists reports whether handle is present on disk.
func (s *Store) Exists(handle string) bool {
	if checkHandle(handle) != nil {
		return false
	}
	_, err := os.Stat(s.Path(handle))
	return err == nil
}

// Rename moves oldHandle to newHandle. A missing source is not an error:
// the note was never saved. An existing newHandle is never replaced; the
// error then wraps both ErrIO and fs.ErrExist.
func (s *Store) Rename(oldHandle, newHandle string) error {
	if err := checkHandle(oldHandle); err != nil {
		return err
	}
	if err := checkHandle(newHandle); err != nil {
		return err
	}
	if oldHandle == newHandle {
		return nil
	}
	if _, err := os.Stat(s.Path(oldHandle)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if _, err := os.Lstat(s.Path(newHandle)); err == nil {
		return fmt.Errorf("%w: rename %s -> %s: %w", ErrIO, oldHandle, newHandle, fs.ErrExist)
	}
	if err := os.Rename(s.Path(oldHandle), s.Path(newHandle)); err != nil {
		return fmt.Errorf("%w: rename %s -> %s: %w", ErrIO, oldHandle, newHandle, err)
	}
	return nil
}

// Delete removes handle. A missing file is not an error.
func (s *Store) Delete(handle string) error {
	if err := checkHandle(handle); err != nil {
		return err
	}
	if err := os.Remove(s.Path(handle)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: delete %s: %w", ErrIO, handle, err)
	}
	return nil
}

// ListNoteFiles returns every note handle in directory order. The index file
// and anything that is not a regular file are skipped; a missing directory
// lists as empty.
func (s *Store) ListNoteFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", ErrIO, s.dir, err)
	}

	var handles []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || name == IndexFile || !strings.HasSuffix(name, Ext) {
			continue
		}
		if strings.HasPrefix(name, ".") {
			continue // staging files from writeAtomic
		}
		handles = append(handles, name)
	}
	return handles, nil
}

// LoadCounter reads the index file. Missing, empty, negative or garbage
// content all read as 0.
func (s *Store) LoadCounter() int {
	data, err := os.ReadFile(s.Path(IndexFile))
	if err != nil {
		return 0
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SaveCounter overwrites the index file with n.
func (s *Store) SaveCounter(n int) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	if err := writeAtomic(s.Path(IndexFile), []byte(strconv.Itoa(n))); err != nil {
		return fmt.Errorf("%w: save counter: %w", ErrIO, err)
	}
	return nil
}
