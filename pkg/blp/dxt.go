package blp

import (
	"encoding/binary"
	"image"
	"image/color"
)

func rgb565(v uint16) (r, g, b uint16) {
	r = (v >> 11) & 0x1f
	g = (v >> 5) & 0x3f
	b = v & 0x1f

	r = (r << 3) | (r >> 2)
	g = (g << 2) | (g >> 4)
	b = (b << 3) | (b >> 2)
	return
}

// colorBlock decodes the 8-byte color half of a DXT block. When punchThrough
// is set, DXT1 three-color blocks mark code 3 as fully transparent.
func colorBlock(block []byte, punchThrough bool, out *[16]color.NRGBA) {
	c0 := binary.LittleEndian.Uint16(block[0:])
	c1 := binary.LittleEndian.Uint16(block[2:])
	codes := binary.LittleEndian.Uint32(block[4:])

	r0, g0, b0 := rgb565(c0)
	r1, g1, b1 := rgb565(c1)

	var palette [4]color.NRGBA
	palette[0] = color.NRGBA{R: byte(r0), G: byte(g0), B: byte(b0), A: 0xff}
	palette[1] = color.NRGBA{R: byte(r1), G: byte(g1), B: byte(b1), A: 0xff}
	if c0 > c1 {
		palette[2] = color.NRGBA{R: byte((2*r0 + r1) / 3), G: byte((2*g0 + g1) / 3), B: byte((2*b0 + b1) / 3), A: 0xff}
		palette[3] = color.NRGBA{R: byte((r0 + 2*r1) / 3), G: byte((g0 + 2*g1) / 3), B: byte((b0 + 2*b1) / 3), A: 0xff}
	} else {
		palette[2] = color.NRGBA{R: byte((r0 + r1) / 2), G: byte((g0 + g1) / 2), B: byte((b0 + b1) / 2), A: 0xff}
		palette[3] = color.NRGBA{A: 0xff}
		if punchThrough {
			palette[3].A = 0
		}
	}

	for i := 0; i < 16; i++ {
		out[i] = palette[(codes>>(2*i))&3]
	}
}

func decodeDXT1(block []byte, punchThrough bool, out *[16]color.NRGBA) {
	colorBlock(block, punchThrough, out)
}

// decodeDXT3 reads explicit 4-bit alpha followed by a DXT1 color block.
func decodeDXT3(block []byte, out *[16]color.NRGBA) {
	colorBlock(block[8:], false, out)
	for i := 0; i < 16; i++ {
		a := (block[i/2] >> (4 * (i % 2))) & 0x0f
		out[i].A = a<<4 | a
	}
}

// decodeDXT5 reads interpolated 3-bit alpha followed by a DXT1 color block.
func decodeDXT5(block []byte, out *[16]color.NRGBA) {
	colorBlock(block[8:], false, out)

	a0 := uint32(block[0])
	a1 := uint32(block[1])
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(block[2+i]) << (8 * i)
	}

	for i := 0; i < 16; i++ {
		code := uint32(bits>>(3*i)) & 7
		var a uint32
		switch {
		case code == 0:
			a = a0
		case code == 1:
			a = a1
		case a0 > a1:
			a = ((8-code)*a0 + (code-1)*a1) / 7
		case code == 6:
			a = 0
		case code == 7:
			a = 0xff
		default:
			a = ((6-code)*a0 + (code-1)*a1) / 5
		}
		out[i].A = byte(a)
	}
}

// decodeBlocks lays out 4x4 blocks in row-major order, clipping blocks that
// overhang the image edge.
func decodeBlocks(data []byte, w, h, blockSize int, decode func(block []byte, out *[16]color.NRGBA)) (*image.NRGBA, error) {
	blocksX := (w + 3) / 4
	blocksY := (h + 3) / 4
	if len(data) < blocksX*blocksY*blockSize {
		return nil, ErrTruncated
	}

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var colors [16]color.NRGBA

	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			offset := (by*blocksX + bx) * blockSize
			decode(data[offset:offset+blockSize], &colors)

			for i, c := range colors {
				x := bx*4 + i%4
				y := by*4 + i/4
				if x < w && y < h {
					img.SetNRGBA(x, y, c)
				}
			}
		}
	}
	return img, nil
}
