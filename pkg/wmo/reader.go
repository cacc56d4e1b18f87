package wmo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Faultbox/wmoexport/pkg/encoding"
)

// WMO format errors.
var (
	ErrTruncated       = errors.New("truncated WMO data")
	ErrInvalidChunk    = errors.New("invalid WMO chunk")
	ErrMissingChunk    = errors.New("missing required WMO chunk")
	ErrInvalidBatch    = errors.New("render batch face range out of bounds")
	ErrGroupUnresolved = errors.New("unable to resolve WMO group file")
	ErrGroupOutOfRange = errors.New("WMO group index out of range")
	ErrUnsupportedMVER = errors.New("unsupported WMO version")
)

// SupportedVersion is the only MVER value this reader understands.
const SupportedVersion = 17

// chunk is one IFF-style chunk with its identifier in reading order.
type chunk struct {
	id   string
	data []byte
}

// readChunks splits data into chunks. Identifiers are stored reversed on disk
// ("REVM" for MVER) and are returned in reading order.
func readChunks(data []byte) ([]chunk, error) {
	var chunks []chunk
	offset := 0
	for offset < len(data) {
		if offset+8 > len(data) {
			return nil, fmt.Errorf("%w: chunk header at offset %d", ErrTruncated, offset)
		}
		id := reverseID(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4:]))
		offset += 8
		if size < 0 || offset+size > len(data) {
			return nil, fmt.Errorf("%w: %s size %d exceeds data", ErrInvalidChunk, id, size)
		}
		chunks = append(chunks, chunk{id: id, data: data[offset : offset+size]})
		offset += size
	}
	return chunks, nil
}

func reverseID(raw []byte) string {
	return string([]byte{raw[3], raw[2], raw[1], raw[0]})
}

// readStringBlock parses a block of null-terminated strings keyed by offset.
// Empty padding strings are skipped.
func readStringBlock(data []byte) NameTable {
	table := make(NameTable)
	start := 0
	for i, b := range data {
		if b != 0 {
			continue
		}
		if i > start {
			table[uint32(start)] = encoding.DecodeName(data[start:i])
		}
		start = i + 1
	}
	if start < len(data) {
		table[uint32(start)] = encoding.DecodeName(data[start:])
	}
	return table
}

// readArray decodes a chunk holding a packed array of fixed-size records.
func readArray[T any](c chunk, recordSize int) ([]T, error) {
	if len(c.data)%recordSize != 0 {
		return nil, fmt.Errorf("%w: %s size %d not a multiple of %d", ErrInvalidChunk, c.id, len(c.data), recordSize)
	}
	out := make([]T, len(c.data)/recordSize)
	if err := binary.Read(bytes.NewReader(c.data), binary.LittleEndian, out); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrTruncated, c.id, err)
	}
	return out, nil
}

func readVersion(c chunk) (uint32, error) {
	if len(c.data) < 4 {
		return 0, fmt.Errorf("%w: MVER", ErrTruncated)
	}
	version := binary.LittleEndian.Uint32(c.data)
	if version != SupportedVersion {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedMVER, version)
	}
	return version, nil
}

// rootHeader is the on-disk MOHD layout.
type rootHeader struct {
	MaterialCount uint32
	GroupCount    uint32
	PortalCount   uint32
	LightCount    uint32
	ModelCount    uint32
	DoodadCount   uint32
	SetCount      uint32
	AmbientColor  uint32
	AreaTableID   uint32
	BoundingBox1  [3]float32
	BoundingBox2  [3]float32
	Flags         uint16
	LODCount      uint16
}

// rawDoodadSet is the on-disk MODS layout.
type rawDoodadSet struct {
	Name               [20]byte
	FirstInstanceIndex uint32
	DoodadCount        uint32
	Unused             uint32
}

// rawDoodad is the on-disk MODD layout; Offset packs a 24-bit name offset
// with 8 bits of flags.
type rawDoodad struct {
	OffsetFlags uint32
	Position    [3]float32
	Rotation    [4]float32
	Scale       float32
	Color       uint32
}

// ParseRoot parses a WMO root file from raw bytes.
func ParseRoot(data []byte) (*Asset, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	asset := &Asset{}
	var haveVersion, haveHeader bool

	for _, c := range chunks {
		switch c.id {
		case "MVER":
			if asset.Version, err = readVersion(c); err != nil {
				return nil, err
			}
			haveVersion = true

		case "MOHD":
			var hdr rootHeader
			if err := binary.Read(bytes.NewReader(c.data), binary.LittleEndian, &hdr); err != nil {
				return nil, fmt.Errorf("%w: reading MOHD: %v", ErrTruncated, err)
			}
			asset.MaterialCount = hdr.MaterialCount
			asset.GroupCount = hdr.GroupCount
			asset.PortalCount = hdr.PortalCount
			asset.LightCount = hdr.LightCount
			asset.ModelCount = hdr.ModelCount
			asset.DoodadCount = hdr.DoodadCount
			asset.SetCount = hdr.SetCount
			asset.AmbientColor = hdr.AmbientColor
			asset.AreaTableID = hdr.AreaTableID
			asset.BoundingBox1 = hdr.BoundingBox1
			asset.BoundingBox2 = hdr.BoundingBox2
			asset.Flags = hdr.Flags
			asset.LODCount = hdr.LODCount
			haveHeader = true

		case "MOTX":
			asset.TextureNames = readStringBlock(c.data)

		case "MOMT":
			if asset.Materials, err = readArray[Material](c, 64); err != nil {
				return nil, err
			}

		case "MOGN":
			asset.GroupNames = readStringBlock(c.data)

		case "MOGI":
			if asset.GroupInfo, err = readArray[GroupInfo](c, 32); err != nil {
				return nil, err
			}

		case "MOPV":
			if asset.PortalVertices, err = readArray[float32](c, 4); err != nil {
				return nil, err
			}

		case "MOPT":
			if asset.PortalInfo, err = readArray[PortalInfo](c, 20); err != nil {
				return nil, err
			}

		case "MOPR":
			if asset.PortalRefs, err = readArray[PortalRef](c, 8); err != nil {
				return nil, err
			}

		case "MODS":
			raw, err := readArray[rawDoodadSet](c, 32)
			if err != nil {
				return nil, err
			}
			asset.DoodadSets = make([]DoodadSet, len(raw))
			for i, r := range raw {
				asset.DoodadSets[i] = DoodadSet{
					Name:               encoding.FixedName(r.Name[:]),
					FirstInstanceIndex: r.FirstInstanceIndex,
					DoodadCount:        r.DoodadCount,
					Unused:             r.Unused,
				}
			}

		case "MODN":
			asset.DoodadNames = readStringBlock(c.data)

		case "MODI":
			if asset.FileDataIDs, err = readArray[uint32](c, 4); err != nil {
				return nil, err
			}

		case "MODD":
			raw, err := readArray[rawDoodad](c, 40)
			if err != nil {
				return nil, err
			}
			asset.Doodads = make([]Doodad, len(raw))
			for i, r := range raw {
				asset.Doodads[i] = Doodad{
					Offset:   r.OffsetFlags & 0xFFFFFF,
					Flags:    uint8(r.OffsetFlags >> 24),
					Position: r.Position,
					Rotation: r.Rotation,
					Scale:    r.Scale,
					Color:    r.Color,
				}
			}

		case "MFOG":
			if asset.Fogs, err = readArray[Fog](c, 48); err != nil {
				return nil, err
			}

		case "GFID":
			if asset.GroupIDs, err = readArray[uint32](c, 4); err != nil {
				return nil, err
			}
		}
	}

	if !haveVersion {
		return nil, fmt.Errorf("%w: MVER", ErrMissingChunk)
	}
	if !haveHeader {
		return nil, fmt.Errorf("%w: MOHD", ErrMissingChunk)
	}

	if asset.TextureNames != nil {
		asset.TextureAddressing = AddressByName
	} else {
		asset.TextureAddressing = AddressByID
	}
	if asset.FileDataIDs != nil {
		asset.DoodadAddressing = AddressByID
	} else {
		asset.DoodadAddressing = AddressByName
	}

	return asset, nil
}

// groupHeader is the on-disk MOGP header that precedes the group sub-chunks.
type groupHeader struct {
	NameOffset   uint32
	DescOffset   uint32
	Flags        uint32
	BoundingBox1 [3]float32
	BoundingBox2 [3]float32
	PortalStart  uint16
	NumPortals   uint16
	NumBatchesA  uint16
	NumBatchesB  uint16
	NumBatchesC  uint16
	Padding      uint16
	FogIndices   [4]uint8
	LiquidType   uint32
	GroupID      uint32
	Flags2       uint32
	Unused       uint32
}

const groupHeaderSize = 68

// rawBatch is the on-disk MOBA layout.
type rawBatch struct {
	PossibleBox1 [3]int16
	PossibleBox2 [3]int16
	FirstFace    uint32
	NumFaces     uint16
	FirstVertex  uint16
	LastVertex   uint16
	Flags        uint8
	MaterialID   uint8
}

// ParseGroup parses a WMO group file from raw bytes.
func ParseGroup(data []byte) (*Group, error) {
	chunks, err := readChunks(data)
	if err != nil {
		return nil, err
	}

	group := &Group{}
	var mogp []byte
	haveVersion := false

	for _, c := range chunks {
		switch c.id {
		case "MVER":
			if group.Version, err = readVersion(c); err != nil {
				return nil, err
			}
			haveVersion = true
		case "MOGP":
			mogp = c.data
		}
	}

	if !haveVersion {
		return nil, fmt.Errorf("%w: MVER", ErrMissingChunk)
	}
	if mogp == nil {
		return nil, fmt.Errorf("%w: MOGP", ErrMissingChunk)
	}
	if len(mogp) < groupHeaderSize {
		return nil, fmt.Errorf("%w: MOGP header", ErrTruncated)
	}

	var hdr groupHeader
	if err := binary.Read(bytes.NewReader(mogp[:groupHeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: reading MOGP header: %v", ErrTruncated, err)
	}
	group.NameOffset = hdr.NameOffset
	group.DescOffset = hdr.DescOffset
	group.Flags = hdr.Flags
	group.BoundingBox1 = hdr.BoundingBox1
	group.BoundingBox2 = hdr.BoundingBox2
	group.PortalStart = hdr.PortalStart
	group.NumPortals = hdr.NumPortals
	group.NumBatchesA = hdr.NumBatchesA
	group.NumBatchesB = hdr.NumBatchesB
	group.NumBatchesC = hdr.NumBatchesC
	group.FogIndices = hdr.FogIndices
	group.LiquidType = hdr.LiquidType
	group.GroupID = hdr.GroupID
	group.Flags2 = hdr.Flags2

	subChunks, err := readChunks(mogp[groupHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("reading MOGP sub-chunks: %w", err)
	}

	for _, c := range subChunks {
		switch c.id {
		case "MOPY":
			if group.MaterialInfo, err = readArray[MaterialInfo](c, 2); err != nil {
				return nil, err
			}
		case "MOVI":
			if group.Indices, err = readArray[uint16](c, 2); err != nil {
				return nil, err
			}
		case "MOVT":
			if group.Vertices, err = readArray[float32](c, 4); err != nil {
				return nil, err
			}
		case "MONR":
			if group.Normals, err = readArray[float32](c, 4); err != nil {
				return nil, err
			}
		case "MOTV":
			uv, err := readArray[float32](c, 4)
			if err != nil {
				return nil, err
			}
			group.UVs = append(group.UVs, uv)
		case "MOBA":
			raw, err := readArray[rawBatch](c, 24)
			if err != nil {
				return nil, err
			}
			group.RenderBatches = make([]RenderBatch, len(raw))
			for i, r := range raw {
				group.RenderBatches[i] = RenderBatch{
					PossibleBox1: r.PossibleBox1,
					PossibleBox2: r.PossibleBox2,
					FirstFace:    r.FirstFace,
					NumFaces:     r.NumFaces,
					FirstVertex:  r.FirstVertex,
					LastVertex:   r.LastVertex,
					Flags:        r.Flags,
					MaterialID:   r.MaterialID,
				}
			}
		case "MOCV":
			if group.VertexColours, err = readArray[uint32](c, 4); err != nil {
				return nil, err
			}
		}
	}

	if len(group.Vertices)%3 != 0 {
		return nil, fmt.Errorf("%w: MOVT length %d", ErrInvalidChunk, len(group.Vertices))
	}
	if len(group.Normals) != 0 && len(group.Normals) != len(group.Vertices) {
		return nil, fmt.Errorf("%w: MONR length %d does not match MOVT length %d",
			ErrInvalidChunk, len(group.Normals), len(group.Vertices))
	}

	for i := range group.RenderBatches {
		batch := &group.RenderBatches[i]
		if int(batch.FirstFace)+int(batch.NumFaces) > len(group.Indices) {
			return nil, fmt.Errorf("%w: batch %d [%d+%d] of %d indices",
				ErrInvalidBatch, i, batch.FirstFace, batch.NumFaces, len(group.Indices))
		}
		batch.resolveMaterialRef()
	}

	return group, nil
}
