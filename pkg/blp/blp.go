// Package blp decodes BLP2 textures into images.
//
// Only the first mip level is decoded. Palettized, DXT1/3/5 and raw BGRA
// encodings are supported. Importing the package registers the format with
// the image package.
package blp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
)

const (
	magic      = "BLP2"
	headerSize = 1172
)

// Color encodings.
const (
	EncodingPalette = 1
	EncodingDXT     = 2
	EncodingBGRA    = 3
)

// Alpha encodings used together with EncodingDXT.
const (
	AlphaDXT1 = 0
	AlphaDXT3 = 1
	AlphaDXT5 = 7
)

var (
	ErrInvalidMagic = errors.New("not a BLP2 texture")
	ErrUnsupported  = errors.New("unsupported BLP encoding")
	ErrTruncated    = errors.New("truncated BLP data")
)

// Header is the fixed BLP2 header.
type Header struct {
	Magic         [4]byte
	Type          uint32
	Encoding      uint8
	AlphaDepth    uint8
	AlphaEncoding uint8
	HasMips       uint8
	Width         uint32
	Height        uint32
	MipOffsets    [16]uint32
	MipSizes      [16]uint32
	Palette       [256]uint32 // BGRA
}

func init() {
	image.RegisterFormat("blp", magic, Decode, DecodeConfig)
}

// ReadHeader parses the header at the start of data.
func ReadHeader(data []byte) (*Header, error) {
	if len(data) < 4 || string(data[:4]) != magic {
		return nil, ErrInvalidMagic
	}
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header", ErrTruncated)
	}

	var hdr Header
	if err := binary.Read(bytes.NewReader(data[:headerSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if hdr.Width == 0 || hdr.Height == 0 {
		return nil, fmt.Errorf("%w: zero dimensions", ErrUnsupported)
	}
	return &hdr, nil
}

// DecodeConfig returns the dimensions of a BLP2 texture.
func DecodeConfig(r io.Reader) (image.Config, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return image.Config{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	hdr, err := ReadHeader(buf)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(hdr.Width),
		Height:     int(hdr.Height),
	}, nil
}

// Decode reads a BLP2 texture and returns its first mip level.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return DecodeBytes(data)
}

// DecodeBytes decodes the first mip level of a BLP2 texture held in memory.
func DecodeBytes(data []byte) (*image.NRGBA, error) {
	hdr, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	start := int(hdr.MipOffsets[0])
	end := start + int(hdr.MipSizes[0])
	if start < headerSize || end > len(data) || end < start {
		return nil, fmt.Errorf("%w: mip 0 [%d:%d] of %d bytes", ErrTruncated, start, end, len(data))
	}
	mip := data[start:end]
	w, h := int(hdr.Width), int(hdr.Height)

	switch hdr.Encoding {
	case EncodingPalette:
		return decodePalette(hdr, mip, w, h)

	case EncodingDXT:
		switch hdr.AlphaEncoding {
		case AlphaDXT1:
			punchThrough := hdr.AlphaDepth > 0
			return decodeBlocks(mip, w, h, 8, func(block []byte, out *[16]color.NRGBA) {
				decodeDXT1(block, punchThrough, out)
			})
		case AlphaDXT3:
			return decodeBlocks(mip, w, h, 16, decodeDXT3)
		case AlphaDXT5:
			return decodeBlocks(mip, w, h, 16, decodeDXT5)
		}
		return nil, fmt.Errorf("%w: DXT alpha encoding %d", ErrUnsupported, hdr.AlphaEncoding)

	case EncodingBGRA:
		return decodeBGRA(mip, w, h)
	}

	return nil, fmt.Errorf("%w: %d", ErrUnsupported, hdr.Encoding)
}

func decodePalette(hdr *Header, mip []byte, w, h int) (*image.NRGBA, error) {
	count := w * h
	alphaBytes := (count*int(hdr.AlphaDepth) + 7) / 8
	if len(mip) < count+alphaBytes {
		return nil, fmt.Errorf("%w: palette data", ErrTruncated)
	}
	indices := mip[:count]
	alpha := mip[count:]

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, index := range indices {
		bgra := hdr.Palette[index]
		c := color.NRGBA{
			R: byte(bgra >> 16),
			G: byte(bgra >> 8),
			B: byte(bgra),
			A: 0xff,
		}

		switch hdr.AlphaDepth {
		case 1:
			if alpha[i/8]&(1<<(i%8)) == 0 {
				c.A = 0
			}
		case 4:
			a := (alpha[i/2] >> (4 * (i % 2))) & 0x0f
			c.A = a<<4 | a
		case 8:
			c.A = alpha[i]
		}

		img.Pix[i*4+0] = c.R
		img.Pix[i*4+1] = c.G
		img.Pix[i*4+2] = c.B
		img.Pix[i*4+3] = c.A
	}
	return img, nil
}

func decodeBGRA(mip []byte, w, h int) (*image.NRGBA, error) {
	if len(mip) < w*h*4 {
		return nil, fmt.Errorf("%w: BGRA data", ErrTruncated)
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < w*h; i++ {
		img.Pix[i*4+0] = mip[i*4+2]
		img.Pix[i*4+1] = mip[i*4+1]
		img.Pix[i*4+2] = mip[i*4+0]
		img.Pix[i*4+3] = mip[i*4+3]
	}
	return img, nil
}
