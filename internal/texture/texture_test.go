package texture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/Faultbox/wmoexport/pkg/blp"
)

func makePNG(t *testing.T, alpha uint8) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.SetNRGBA(i%2, i/2, color.NRGBA{R: 200, G: 100, B: 50, A: alpha})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// makeTGA builds an uncompressed 32-bit top-to-bottom TGA.
func makeTGA(w, h int, c color.NRGBA) []byte {
	header := make([]byte, 18)
	header[2] = 2
	binary.LittleEndian.PutUint16(header[12:], uint16(w))
	binary.LittleEndian.PutUint16(header[14:], uint16(h))
	header[16] = 32
	header[17] = 0x20 | 8

	data := append([]byte{}, header...)
	for i := 0; i < w*h; i++ {
		data = append(data, c.B, c.G, c.R, c.A)
	}
	return data
}

func makeBLP(t *testing.T) []byte {
	t.Helper()
	hdr := blp.Header{Encoding: blp.EncodingBGRA, AlphaDepth: 8, Width: 1, Height: 1}
	copy(hdr.Magic[:], "BLP2")
	hdr.MipOffsets[0] = 1172
	hdr.MipSizes[0] = 4

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, hdr); err != nil {
		t.Fatal(err)
	}
	buf.Write([]byte{0x30, 0x20, 0x10, 0x40})
	return buf.Bytes()
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name string
		want Format
		ext  string
	}{
		{"", FormatPNG, ".png"},
		{"PNG", FormatPNG, ".png"},
		{"webp", FormatWebP, ".webp"},
		{"raw", FormatRaw, ".blp"},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.name)
		if err != nil {
			t.Fatalf("ParseFormat(%q): %v", tt.name, err)
		}
		if got != tt.want || got.Extension() != tt.ext {
			t.Errorf("ParseFormat(%q) = %v (%s), want %v (%s)", tt.name, got, got.Extension(), tt.want, tt.ext)
		}
	}

	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind string
	}{
		{"png", makePNG(t, 255), "png"},
		{"tga", makeTGA(3, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255}), "tga"},
		{"blp", makeBLP(t), "blp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, kind, err := Decode(tt.data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if kind != tt.kind {
				t.Errorf("expected kind %s, got %s", tt.kind, kind)
			}
			if img.Bounds().Empty() {
				t.Error("decoded image is empty")
			}
		})
	}
}

func TestToNRGBA_Alpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, A: 20})

	kept := ToNRGBA(src, true)
	if kept.NRGBAAt(0, 0).A != 20 {
		t.Errorf("expected alpha to be kept, got %d", kept.NRGBAAt(0, 0).A)
	}

	opaque := ToNRGBA(src, false)
	if opaque.NRGBAAt(0, 0).A != 255 {
		t.Errorf("expected opaque pixel, got %d", opaque.NRGBAAt(0, 0).A)
	}
	if src.NRGBAAt(0, 0).A != 20 {
		t.Error("source image was modified")
	}
}

func TestConverter_PNG(t *testing.T) {
	conv := NewConverter(FormatPNG)

	out, err := conv.Convert(makeBLP(t), false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if !IsOpaque(img) {
		t.Error("expected opaque output when alpha is disabled")
	}

	out, err = conv.Convert(makePNG(t, 128), true)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	img, err = png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not a png: %v", err)
	}
	if IsOpaque(img) {
		t.Error("expected translucent output when alpha is enabled")
	}
}

func TestConverter_WebP(t *testing.T) {
	conv := NewConverter(FormatWebP)
	if conv.Extension() != ".webp" {
		t.Errorf("unexpected extension %s", conv.Extension())
	}

	out, err := conv.Convert(makeTGA(4, 4, color.NRGBA{R: 255, A: 255}), true)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	img, kind, err := Decode(out)
	if err != nil {
		t.Fatalf("decoding webp output: %v", err)
	}
	if kind != "webp" || img.Bounds().Dx() != 4 {
		t.Errorf("unexpected output %s %v", kind, img.Bounds())
	}
}

func TestConverter_Raw(t *testing.T) {
	data := []byte("not an image")
	out, err := NewConverter(FormatRaw).Convert(data, true)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Error("raw conversion changed the data")
	}
}
