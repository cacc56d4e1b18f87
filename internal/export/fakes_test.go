package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/Faultbox/wmoexport/pkg/wmo"
)

var errNoBlob = errors.New("no such blob")

type fakeSource struct {
	asset  *wmo.Asset
	groups []*wmo.Group
	err    map[int]error
	loaded []int
}

func (s *fakeSource) Load(ctx context.Context) (*wmo.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.asset, nil
}

func (s *fakeSource) Group(_ context.Context, index int) (*wmo.Group, error) {
	s.loaded = append(s.loaded, index)
	if err := s.err[index]; err != nil {
		return nil, err
	}
	if index < 0 || index >= len(s.groups) {
		return nil, wmo.ErrGroupOutOfRange
	}
	return s.groups[index], nil
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[uint32][]byte
	calls map[uint32]int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: make(map[uint32][]byte), calls: make(map[uint32]int)}
}

func (s *fakeStorage) Fetch(_ context.Context, id uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[id]++
	data, ok := s.blobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", errNoBlob, id)
	}
	return data, nil
}

func (s *fakeStorage) fetched(id uint32) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

type fakeLookup struct {
	names map[uint32]string
}

func (l fakeLookup) FileDataID(name string) (uint32, bool) {
	for id, n := range l.names {
		if n == name {
			return id, true
		}
	}
	return 0, false
}

func (l fakeLookup) FileName(id uint32) (string, bool) {
	name, ok := l.names[id]
	return name, ok
}

func (l fakeLookup) FormatUnknown(id uint32, ext string) string {
	return "unknown/" + strconv.FormatUint(uint64(id), 10) + ext
}

// passConverter writes texture blobs through unchanged.
type passConverter struct{}

func (passConverter) Convert(data []byte, _ bool) ([]byte, error) { return data, nil }
func (passConverter) Extension() string                          { return ".png" }

type fakeSubModels struct {
	mu    sync.Mutex
	calls map[uint32]int
	fail  map[uint32]bool
	hook  func(id uint32)
}

func newFakeSubModels() *fakeSubModels {
	return &fakeSubModels{calls: make(map[uint32]int), fail: make(map[uint32]bool)}
}

func (f *fakeSubModels) ExportAsOBJ(_ context.Context, data []byte, id uint32, out string) error {
	f.mu.Lock()
	f.calls[id]++
	fail := f.fail[id]
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(id)
	}
	if fail {
		return errors.New("sub-model export failed")
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

func (f *fakeSubModels) exported(id uint32) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

type recordingProgress struct {
	names  []string
	values int
	clears int
}

func (p *recordingProgress) SetTaskName(name string) { p.names = append(p.names, name) }
func (p *recordingProgress) SetTaskMax(int)          {}
func (p *recordingProgress) SetTaskValue(int)        { p.values++ }
func (p *recordingProgress) ClearTask()              { p.clears++ }

// gridGroup builds a group of n vertices in one strip of triangles bound to
// material 0, with the given number of UV layers.
func gridGroup(nameOffset uint32, n, layers int) *wmo.Group {
	g := &wmo.Group{NameOffset: nameOffset}
	for i := 0; i < n; i++ {
		g.Vertices = append(g.Vertices, float32(i), float32(i+1), float32(i+2))
		g.Normals = append(g.Normals, 0, 0, 1)
	}
	for l := 0; l < layers; l++ {
		uv := make([]float32, n*2)
		for i := range uv {
			uv[i] = float32(l + 1)
		}
		g.UVs = append(g.UVs, uv)
	}
	for i := 0; i+2 < n; i++ {
		g.Indices = append(g.Indices, uint16(i), uint16(i+1), uint16(i+2))
	}
	g.RenderBatches = []wmo.RenderBatch{{
		FirstFace: 0,
		NumFaces:  uint16(len(g.Indices)),
		Material:  wmo.MaterialRef{Kind: wmo.MaterialDirect, Index: 0},
	}}
	return g
}

// retailAsset is an id-addressed asset with one material using texture 1000
// and no doodads.
func retailAsset(groups int) *wmo.Asset {
	return &wmo.Asset{
		FileDataID:        900,
		Version:           17,
		GroupCount:        uint32(groups),
		MaterialCount:     1,
		Materials:         []wmo.Material{{Texture1: 1000}},
		GroupNames:        wmo.NameTable{0: "hall", 5: "cellar"},
		TextureAddressing: wmo.AddressByID,
		DoodadAddressing:  wmo.AddressByID,
	}
}

type harness struct {
	dir       string
	out       string
	source    *fakeSource
	storage   *fakeStorage
	lookup    fakeLookup
	subModels *fakeSubModels
	opts      Options
}

func newHarness(dir string, asset *wmo.Asset, groups ...*wmo.Group) *harness {
	h := &harness{
		dir:       dir,
		out:       filepath.Join(dir, "hall.obj"),
		source:    &fakeSource{asset: asset, groups: groups},
		storage:   newFakeStorage(),
		lookup:    fakeLookup{names: make(map[uint32]string)},
		subModels: newFakeSubModels(),
		opts:      DefaultOptions(dir),
	}
	h.storage.blobs[1000] = []byte("texture-1000")
	return h
}

func (h *harness) exporter(session *Session) *Exporter {
	return NewExporter(h.source, Deps{
		Storage:   h.storage,
		Lookup:    h.lookup,
		Textures:  passConverter{},
		SubModels: h.subModels,
	}, h.opts, session)
}
