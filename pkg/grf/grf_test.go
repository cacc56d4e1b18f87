package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testFile struct {
	name    string
	content []byte
	stored  bool // write uncompressed
}

// writeArchive builds a GRF 0x200 archive in dir and returns its path.
func writeArchive(t *testing.T, dir string, files []testFile) string {
	t.Helper()

	var body bytes.Buffer
	var table bytes.Buffer
	for _, file := range files {
		data := file.content
		if !file.stored {
			var compressed bytes.Buffer
			w := zlib.NewWriter(&compressed)
			w.Write(file.content)
			w.Close()
			data = compressed.Bytes()
		}

		alignedSize := uint32(len(data))
		if alignedSize%8 != 0 {
			alignedSize += 8 - alignedSize%8
		}

		offset := uint32(body.Len())
		body.Write(data)
		body.Write(make([]byte, alignedSize-uint32(len(data))))

		table.Write(bytes.ReplaceAll([]byte(file.name), []byte("/"), []byte("\\")))
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(data)))
		binary.Write(&table, binary.LittleEndian, alignedSize)
		binary.Write(&table, binary.LittleEndian, uint32(len(file.content)))
		table.WriteByte(FlagFile)
		binary.Write(&table, binary.LittleEndian, offset)
	}

	var compressedTable bytes.Buffer
	tw := zlib.NewWriter(&compressedTable)
	tw.Write(table.Bytes())
	tw.Close()

	var out bytes.Buffer
	header := Header{
		TableOffset: uint32(body.Len()),
		FileCount:   uint32(len(files)) + 7,
		Version:     version200,
	}
	copy(header.Magic[:], grfMagic)
	binary.Write(&out, binary.LittleEndian, header)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(compressedTable.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(compressedTable.Bytes())

	path := filepath.Join(dir, "test.grf")
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}
	return path
}

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	path := writeArchive(t, t.TempDir(), []testFile{
		{name: "World/WMO/Hall.wmo", content: []byte("root bytes")},
		{name: "world/wmo/hall_000.wmo", content: bytes.Repeat([]byte{0xAB}, 100)},
		{name: "textures/stone.blp", content: []byte("BLP2"), stored: true},
	})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open GRF: %v", err)
	}
	t.Cleanup(func() { archive.Close() })
	return archive
}

func TestOpen(t *testing.T) {
	archive := openTestArchive(t)

	if archive.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", archive.Len())
	}
	want := []string{"textures/stone.blp", "world/wmo/hall.wmo", "world/wmo/hall_000.wmo"}
	got := archive.List()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestContains(t *testing.T) {
	archive := openTestArchive(t)

	tests := []struct {
		path string
		want bool
	}{
		{"world/wmo/hall.wmo", true},
		{"WORLD\\WMO\\HALL.WMO", true},
		{"textures/stone.blp", true},
		{"nonexistent/file/path.txt", false},
	}

	for _, tt := range tests {
		if got := archive.Contains(tt.path); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRead(t *testing.T) {
	archive := openTestArchive(t)

	data, err := archive.Read("World\\WMO\\Hall.wmo")
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "root bytes" {
		t.Errorf("unexpected content %q", data)
	}

	data, err = archive.Read("world/wmo/hall_000.wmo")
	if err != nil {
		t.Fatalf("failed to read group: %v", err)
	}
	if len(data) != 100 || data[99] != 0xAB {
		t.Errorf("unexpected group content, %d bytes", len(data))
	}

	data, err = archive.Read("textures/stone.blp")
	if err != nil {
		t.Fatalf("failed to read stored file: %v", err)
	}
	if string(data) != "BLP2" {
		t.Errorf("unexpected stored content %q", data)
	}

	if _, err := archive.Read("missing.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestOpen_InvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.grf")
	if err := os.WriteFile(path, make([]byte, 64), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Open(path); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}
