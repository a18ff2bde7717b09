package stash

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the snapshot file created inside the mod data directory.
const FileName = "storage_cache.txt"

var fileHeader = []string{
	"# Storage snapshot cache: last known item counts in base storage.",
	"# One entry per line as <typeId>=<count>; counts must be positive.",
	"# Lines starting with '#' are ignored. The file is rewritten on every save.",
}

// FileStore keeps the snapshot in a plain text file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore writing FileName inside dataDir.
func NewFileStore(dataDir string) *FileStore {
	return &FileStore{path: filepath.Join(dataDir, FileName)}
}

// Path returns the snapshot file location.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Name() string { return "file" }

// Save overwrites the file. The content goes to a temp file first and is
// renamed into place, so a crash mid-write leaves the old snapshot intact.
func (s *FileStore) Save(_ context.Context, entries []Entry) error {
	var buf bytes.Buffer
	for _, line := range fileHeader {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	for _, e := range entries {
		fmt.Fprintf(&buf, "%d=%d\n", e.TypeID, e.Count)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("stash: create data dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("stash: create temp file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("stash: write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("stash: write snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("stash: replace snapshot: %w", err)
	}
	return nil
}

// Load parses the file, skipping comments and malformed lines.
func (s *FileStore) Load(_ context.Context) ([]Entry, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("stash: open snapshot: %w", err)
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if e, ok := ParseLine(sc.Text()); ok {
			out = append(out, e)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stash: read snapshot: %w", err)
	}
	return out, nil
}

// ParseLine parses one "typeId=count" line. Blank lines, comments, lines
// without a key, non-integer sides and non-positive counts are rejected.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false
	}
	idx := strings.IndexByte(line, '=')
	if idx <= 0 {
		return Entry{}, false
	}
	typeID, err := strconv.Atoi(strings.TrimSpace(line[:idx]))
	if err != nil {
		return Entry{}, false
	}
	count, err := strconv.Atoi(strings.TrimSpace(line[idx+1:]))
	if err != nil || count <= 0 {
		return Entry{}, false
	}
	return Entry{TypeID: typeID, Count: count}, true
}
