// Package texture decodes game textures and re-encodes them for export.
package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"

	"github.com/Faultbox/wmoexport/pkg/blp"
)

// Format is an output image format.
type Format int

const (
	FormatPNG Format = iota
	FormatWebP
	// FormatRaw writes the source blob unchanged.
	FormatRaw
)

var ErrUnknownFormat = errors.New("unknown texture format")

// ParseFormat parses a format name as used in configuration files.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	case "raw", "blp":
		return FormatRaw, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	case FormatRaw:
		return "blp"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Extension returns the file extension written for the format, with a dot.
func (f Format) Extension() string {
	return "." + f.String()
}

// Decode detects the container by its magic bytes and decodes it.
// Data with no recognised magic is treated as TGA, which has none.
func Decode(data []byte) (image.Image, string, error) {
	r := bytes.NewReader(data)
	var (
		img  image.Image
		kind string
		err  error
	)

	switch {
	case bytes.HasPrefix(data, []byte("BLP2")):
		img, err = blp.DecodeBytes(data)
		kind = "blp"
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		img, err = png.Decode(r)
		kind = "png"
	case bytes.HasPrefix(data, []byte("BM")):
		img, err = bmp.Decode(r)
		kind = "bmp"
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		img, err = webp.Decode(r)
		kind = "webp"
	case bytes.HasPrefix(data, []byte{0xff, 0xd8}):
		img, err = jpeg.Decode(r)
		kind = "jpeg"
	default:
		img, err = tga.Decode(r)
		kind = "tga"
	}

	if err != nil {
		return nil, kind, fmt.Errorf("decoding %s: %w", kind, err)
	}
	return img, kind, nil
}

// ToNRGBA converts an image to NRGBA. When alpha is false every pixel is
// made fully opaque.
func ToNRGBA(src image.Image, alpha bool) *image.NRGBA {
	dst, ok := src.(*image.NRGBA)
	if !ok {
		b := src.Bounds()
		dst = image.NewNRGBA(b)
		draw.Draw(dst, b, src, b.Min, draw.Src)
	} else if !alpha {
		dst = image.NewNRGBA(src.Bounds())
		copy(dst.Pix, src.(*image.NRGBA).Pix)
	}

	if !alpha {
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 0xff
		}
	}
	return dst
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	}
	return fmt.Errorf("%w: cannot encode %s", ErrUnknownFormat, format)
}

// IsOpaque reports whether every pixel of img has full alpha.
func IsOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}

// Converter turns texture blobs from storage into output files.
type Converter struct {
	Format Format
}

// NewConverter creates a converter writing the given format.
func NewConverter(format Format) *Converter {
	return &Converter{Format: format}
}

// Extension returns the extension of files produced by Convert.
func (c *Converter) Extension() string {
	return c.Format.Extension()
}

// Convert decodes a texture blob and re-encodes it. FormatRaw returns the
// blob unchanged.
func (c *Converter) Convert(data []byte, alpha bool) ([]byte, error) {
	if c.Format == FormatRaw {
		return data, nil
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, ToNRGBA(img, alpha), c.Format); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", c.Format, err)
	}
	return buf.Bytes(), nil
}
