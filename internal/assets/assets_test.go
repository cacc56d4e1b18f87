package assets

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/wmoexport/pkg/grf"
)

type names map[uint32]string

func (n names) FileName(id uint32) (string, bool) {
	name, ok := n[id]
	return name, ok
}

func writeFile(t *testing.T, path string, data string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
}

// writeStoredArchive writes a GRF archive whose entries are stored
// uncompressed.
func writeStoredArchive(t *testing.T, path string, files map[string]string) {
	t.Helper()

	var body, table bytes.Buffer
	for name, content := range files {
		offset := uint32(body.Len())
		body.WriteString(content)

		table.WriteString(name)
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(content)))
		binary.Write(&table, binary.LittleEndian, uint32(len(content)))
		binary.Write(&table, binary.LittleEndian, uint32(len(content)))
		table.WriteByte(grf.FlagFile)
		binary.Write(&table, binary.LittleEndian, offset)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	zw.Write(table.Bytes())
	zw.Close()

	header := grf.Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     0x200,
	}
	copy(header.Magic[:], "Master of Magic")

	var out bytes.Buffer
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(compressed.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(compressed.Bytes())

	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestManager_FetchFromDirectories(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writeFile(t, filepath.Join(low, "world", "tex", "wall.blp"), "low")
	writeFile(t, filepath.Join(high, "world", "tex", "wall.blp"), "high")
	writeFile(t, filepath.Join(low, "7"), "by-id")

	m := NewManager(names{1000: "world/tex/wall.blp"})
	defer m.Close()
	if err := m.AddDirectory(low); err != nil {
		t.Fatal(err)
	}
	if err := m.AddDirectory(high); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	data, err := m.Fetch(ctx, 1000)
	if err != nil {
		t.Fatalf("Fetch(1000): %v", err)
	}
	if string(data) != "high" {
		t.Errorf("expected last added directory to win, got %q", data)
	}

	data, err = m.Fetch(ctx, 7)
	if err != nil || string(data) != "by-id" {
		t.Errorf("expected identifier file fallback, got %q, %v", data, err)
	}

	if _, err := m.Fetch(ctx, 8); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Served from cache.
	if _, err := m.Fetch(ctx, 1000); err != nil {
		t.Fatal(err)
	}
	hits, misses := m.CacheStats()
	if hits != 1 || misses != 3 {
		t.Errorf("expected 1 hit and 3 misses, got %d/%d", hits, misses)
	}
}

func TestManager_FetchFromArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "data.grf")
	writeStoredArchive(t, archive, map[string]string{
		"world\\wmo\\hall.wmo": "root",
	})

	m := NewManager(names{900: "World/WMO/Hall.wmo"})
	defer m.Close()
	if err := m.AddArchive(archive); err != nil {
		t.Fatalf("AddArchive: %v", err)
	}

	data, err := m.Fetch(context.Background(), 900)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "root" {
		t.Errorf("unexpected data %q", data)
	}
}

func TestManager_Errors(t *testing.T) {
	m := NewManager(nil)

	if err := m.AddDirectory(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	if err := m.AddArchive(filepath.Join(t.TempDir(), "missing.grf")); err == nil {
		t.Error("expected error for missing archive")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.Fetch(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get(1); ok {
		t.Error("expected miss on empty cache")
	}
	c.Set(1, []byte("a"))
	if data, ok := c.Get(1); !ok || string(data) != "a" {
		t.Errorf("expected hit, got %q %v", data, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1/1, got %d/%d", hits, misses)
	}

	c.Clear()
	hits, misses = c.Stats()
	if c.Len() != 0 || hits != 0 || misses != 0 {
		t.Error("expected cache and stats to be reset")
	}
}
