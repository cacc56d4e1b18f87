package encoding

import "testing"

func TestDecodeName(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"ascii", []byte("world/wmo/test.wmo"), "world/wmo/test.wmo"},
		{"windows-1252 e-acute", []byte{'c', 'a', 'f', 0xE9}, "café"},
		{"empty", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DecodeName(tt.data); got != tt.want {
				t.Errorf("DecodeName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFixedName(t *testing.T) {
	data := make([]byte, 20)
	copy(data, "Set_$DefaultGlobal")

	if got := FixedName(data); got != "Set_$DefaultGlobal" {
		t.Errorf("FixedName() = %q", got)
	}
}

func TestSetNameEncoding(t *testing.T) {
	defer SetNameEncoding("Windows 1252")

	if err := SetNameEncoding("no such encoding"); err == nil {
		t.Error("expected error for unknown encoding")
	}

	if err := SetNameEncoding("ISO 8859-1"); err != nil {
		t.Fatalf("SetNameEncoding: %v", err)
	}
	if NameEncoding() != "ISO 8859-1" {
		t.Errorf("expected ISO 8859-1, got %s", NameEncoding())
	}
}

func TestNormalizePath(t *testing.T) {
	got := NormalizePath(`World\WMO\Dungeon\MD_Crypt.WMO`)
	if got != "world/wmo/dungeon/md_crypt.wmo" {
		t.Errorf("NormalizePath() = %q", got)
	}
}

func TestListEncodings(t *testing.T) {
	if len(ListEncodings()) == 0 {
		t.Error("expected at least one encoding")
	}
}
