package wmo

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fetcher retrieves raw file bytes by file data identifier.
type Fetcher interface {
	Fetch(ctx context.Context, fileDataID uint32) ([]byte, error)
}

// NameResolver maps file names to file data identifiers.
type NameResolver interface {
	FileDataID(name string) (uint32, bool)
}

// Loader lazily decodes a WMO root file and its group files.
// It is safe for concurrent use.
type Loader struct {
	data       []byte
	fileDataID uint32
	fileName   string
	fetcher    Fetcher
	names      NameResolver

	mu     sync.Mutex
	asset  *Asset
	groups []*Group
}

// NewLoader creates a loader for a root file already fetched from storage.
// fileName may be empty when the root file is only known by identifier.
func NewLoader(data []byte, fileDataID uint32, fileName string, fetcher Fetcher, names NameResolver) *Loader {
	return &Loader{
		data:       data,
		fileDataID: fileDataID,
		fileName:   fileName,
		fetcher:    fetcher,
		names:      names,
	}
}

// Load decodes the root file. Repeated calls return the same asset.
func (l *Loader) Load(ctx context.Context) (*Asset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.asset != nil {
		return l.asset, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	asset, err := ParseRoot(l.data)
	if err != nil {
		return nil, fmt.Errorf("parsing root %s: %w", l.describe(), err)
	}
	asset.FileDataID = l.fileDataID
	asset.FileName = l.fileName

	l.asset = asset
	l.groups = make([]*Group, asset.GroupCount)
	return asset, nil
}

// GroupCount returns the number of groups declared by the root header,
// or zero if the root has not been loaded.
func (l *Loader) GroupCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.groups)
}

// Group returns the decoded group at index, fetching its file on first use.
func (l *Loader) Group(ctx context.Context, index int) (*Group, error) {
	if _, err := l.Load(ctx); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if index < 0 || index >= len(l.groups) {
		return nil, fmt.Errorf("%w: %d of %d", ErrGroupOutOfRange, index, len(l.groups))
	}
	if g := l.groups[index]; g != nil {
		return g, nil
	}

	fileDataID, err := l.groupFileDataID(index)
	if err != nil {
		return nil, err
	}

	data, err := l.fetcher.Fetch(ctx, fileDataID)
	if err != nil {
		return nil, fmt.Errorf("fetching group %d (%d): %w", index, fileDataID, err)
	}

	group, err := ParseGroup(data)
	if err != nil {
		return nil, fmt.Errorf("parsing group %d (%d): %w", index, fileDataID, err)
	}

	l.groups[index] = group
	return group, nil
}

// groupFileDataID finds the file holding a group: retail roots list group
// identifiers in GFID, classic roots name them <root>_NNN.wmo.
func (l *Loader) groupFileDataID(index int) (uint32, error) {
	if index < len(l.asset.GroupIDs) && l.asset.GroupIDs[index] != 0 {
		return l.asset.GroupIDs[index], nil
	}

	if l.fileName == "" || l.names == nil {
		return 0, fmt.Errorf("%w: group %d of %s has no GFID entry and no root name", ErrGroupUnresolved, index, l.describe())
	}

	name := GroupFileName(l.fileName, index)
	fileDataID, ok := l.names.FileDataID(name)
	if !ok || fileDataID == 0 {
		return 0, fmt.Errorf("%w: %s", ErrGroupUnresolved, name)
	}
	return fileDataID, nil
}

func (l *Loader) describe() string {
	if l.fileName != "" {
		return l.fileName
	}
	return fmt.Sprintf("%d", l.fileDataID)
}

// GroupFileName returns the conventional name of a group file for a root name,
// e.g. "world/wmo/a.wmo" group 3 -> "world/wmo/a_003.wmo".
func GroupFileName(rootName string, index int) string {
	base := rootName
	if i := strings.LastIndex(strings.ToLower(base), ".wmo"); i >= 0 && i == len(base)-4 {
		base = base[:i]
	}
	return fmt.Sprintf("%s_%03d.wmo", base, index)
}
