// Package listfile maps numeric file data identifiers to file names and back.
//
// A listfile is a text file of "id;name" lines. Names are stored normalized
// (lower-case, forward slashes) so lookups are case-insensitive.
package listfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/Faultbox/wmoexport/pkg/encoding"
)

// Listfile is a bidirectional name table. It is safe for concurrent use.
type Listfile struct {
	mu     sync.RWMutex
	byID   map[uint32]string
	byName map[string]uint32

	// Skipped counts malformed lines ignored by Parse.
	Skipped int
}

// New creates an empty listfile.
func New() *Listfile {
	return &Listfile{
		byID:   make(map[uint32]string),
		byName: make(map[string]uint32),
	}
}

// Load reads a listfile from disk.
func Load(filename string) (*Listfile, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening listfile: %w", err)
	}
	defer f.Close()

	l := New()
	if err := l.Parse(f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return l, nil
}

// Parse adds every "id;name" line from r. Malformed lines are counted in
// Skipped and otherwise ignored.
func (l *Listfile) Parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idText, name, ok := strings.Cut(line, ";")
		if !ok || name == "" {
			l.Skipped++
			continue
		}
		id, err := strconv.ParseUint(idText, 10, 32)
		if err != nil || id == 0 {
			l.Skipped++
			continue
		}
		l.Add(uint32(id), name)
	}
	return scanner.Err()
}

// Add registers a name for an identifier, replacing any previous mapping.
func (l *Listfile) Add(id uint32, name string) {
	name = encoding.NormalizePath(name)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[id] = name
	l.byName[name] = id
}

// FileName returns the normalized name registered for id.
func (l *Listfile) FileName(id uint32) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	name, ok := l.byID[id]
	return name, ok
}

// FileDataID returns the identifier registered for name.
func (l *Listfile) FileDataID(name string) (uint32, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	id, ok := l.byName[encoding.NormalizePath(name)]
	return id, ok
}

// Len returns the number of known identifiers.
func (l *Listfile) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// FormatUnknown returns the placeholder path used for files without a known
// name, e.g. FormatUnknown(1234, ".png") == "unknown/1234.png".
func (l *Listfile) FormatUnknown(id uint32, ext string) string {
	return path.Join("unknown", strconv.FormatUint(uint64(id), 10)+ext)
}
