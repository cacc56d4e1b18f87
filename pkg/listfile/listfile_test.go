package listfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := strings.Join([]string{
		"1000;World/WMO/Hall.wmo",
		"1001;world\\wmo\\hall_000.wmo",
		"",
		"# comment",
		"garbage",
		"abc;name.blp",
		"0;zero.blp",
		"2000;Textures/Stone Wall.BLP",
	}, "\n")

	l := New()
	if err := l.Parse(strings.NewReader(input)); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if l.Len() != 3 {
		t.Errorf("expected 3 entries, got %d", l.Len())
	}
	if l.Skipped != 3 {
		t.Errorf("expected 3 skipped lines, got %d", l.Skipped)
	}

	tests := []struct {
		id   uint32
		name string
	}{
		{1000, "world/wmo/hall.wmo"},
		{1001, "world/wmo/hall_000.wmo"},
		{2000, "textures/stone wall.blp"},
	}
	for _, tt := range tests {
		name, ok := l.FileName(tt.id)
		if !ok || name != tt.name {
			t.Errorf("FileName(%d) = %q, %v; want %q", tt.id, name, ok, tt.name)
		}
		id, ok := l.FileDataID(strings.ToUpper(tt.name))
		if !ok || id != tt.id {
			t.Errorf("FileDataID(%q) = %d, %v; want %d", tt.name, id, ok, tt.id)
		}
	}

	if _, ok := l.FileName(42); ok {
		t.Error("expected unknown identifier to miss")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listfile.csv")
	if err := os.WriteFile(path, []byte("5000;world/generic/chair.m2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if id, ok := l.FileDataID("World/Generic/Chair.m2"); !ok || id != 5000 {
		t.Errorf("unexpected lookup %d %v", id, ok)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("expected error for missing listfile")
	}
}

func TestFormatUnknown(t *testing.T) {
	l := New()
	if got := l.FormatUnknown(1234, ".png"); got != "unknown/1234.png" {
		t.Errorf("FormatUnknown = %q", got)
	}
	if got := l.FormatUnknown(7, ".obj"); got != "unknown/7.obj" {
		t.Errorf("FormatUnknown = %q", got)
	}
}
