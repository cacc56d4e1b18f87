// Package wmo reads World Map Object files: building-scale models split into
// independently renderable groups plus tables of placed doodads.
package wmo

import (
	"fmt"
	"sort"
)

// Addressing describes how file references inside an asset are encoded.
type Addressing int

const (
	// AddressByID means references are global file data identifiers.
	AddressByID Addressing = iota
	// AddressByName means references are offsets into a local name table.
	AddressByName
)

// String returns a human-readable addressing mode.
func (a Addressing) String() string {
	switch a {
	case AddressByID:
		return "ById"
	case AddressByName:
		return "ByName"
	default:
		return fmt.Sprintf("Unknown(%d)", int(a))
	}
}

// NameTable maps byte offsets in a string block chunk to the string stored there.
type NameTable map[uint32]string

// Lookup returns the name stored at the given offset.
func (t NameTable) Lookup(ofs uint32) (string, bool) {
	name, ok := t[ofs]
	return name, ok
}

// Values returns all names ordered by offset.
func (t NameTable) Values() []string {
	offsets := make([]uint32, 0, len(t))
	for ofs := range t {
		offsets = append(offsets, ofs)
	}
	sort.Slice(offsets, func(i, j int) bool { return offsets[i] < offsets[j] })

	values := make([]string, len(offsets))
	for i, ofs := range offsets {
		values[i] = t[ofs]
	}
	return values
}

// Material is one entry of the MOMT table.
type Material struct {
	Flags       uint32    `json:"flags"`
	Shader      uint32    `json:"shader"`
	BlendMode   uint32    `json:"blendMode"`
	Texture1    uint32    `json:"texture1"`
	Color1      uint32    `json:"color1"`
	Color1b     uint32    `json:"color1b"`
	Texture2    uint32    `json:"texture2"`
	Color2      uint32    `json:"color2"`
	GroupType   uint32    `json:"groupType"`
	Texture3    uint32    `json:"texture3"`
	Color3      uint32    `json:"color3"`
	Flags3      uint32    `json:"flags3"`
	RunTimeData [4]uint32 `json:"runTimeData"`
}

// Textures returns the three texture slot references in slot order.
// A zero reference marks an unused slot.
func (m Material) Textures() [3]uint32 {
	return [3]uint32{m.Texture1, m.Texture2, m.Texture3}
}

// GroupInfo is one entry of the MOGI table.
type GroupInfo struct {
	Flags        uint32     `json:"flags"`
	BoundingBox1 [3]float32 `json:"boundingBox1"`
	BoundingBox2 [3]float32 `json:"boundingBox2"`
	NameOffset   int32      `json:"nameOffset"`
}

// PortalInfo is one entry of the MOPT table.
type PortalInfo struct {
	StartVertex uint16     `json:"startVertex"`
	Count       uint16     `json:"count"`
	Plane       [4]float32 `json:"plane"`
}

// PortalRef is one entry of the MOPR table.
type PortalRef struct {
	PortalIndex uint16 `json:"portalIndex"`
	GroupIndex  uint16 `json:"groupIndex"`
	Side        int16  `json:"side"`
	Filler      uint16 `json:"-"`
}

// DoodadSet is a named slice of the doodad instance table.
type DoodadSet struct {
	Name               string `json:"name"`
	FirstInstanceIndex uint32 `json:"firstInstanceIndex"`
	DoodadCount        uint32 `json:"doodadCount"`
	Unused             uint32 `json:"unused"`
}

// Doodad is a placed sub-model instance (MODD entry).
// Offset is a name table offset or an index into the file data ID table,
// depending on the asset's doodad addressing mode.
type Doodad struct {
	Offset   uint32     `json:"offset"`
	Flags    uint8      `json:"flags"`
	Position [3]float32 `json:"position"`
	Rotation [4]float32 `json:"rotation"` // X, Y, Z, W
	Scale    float32    `json:"scale"`
	Color    uint32     `json:"color"`
}

// Fog is one entry of the MFOG table.
type Fog struct {
	Flags               uint32     `json:"flags"`
	Position            [3]float32 `json:"position"`
	SmallRadius         float32    `json:"radiusSmall"`
	LargeRadius         float32    `json:"radiusLarge"`
	FogEnd              float32    `json:"fogEnd"`
	FogStartScalar      float32    `json:"fogStartScalar"`
	Color               uint32     `json:"color1"`
	UnderwaterFogEnd    float32    `json:"uwFogEnd"`
	UnderwaterFogScalar float32    `json:"uwFogStartScalar"`
	UnderwaterColor     uint32     `json:"color2"`
}

// BatchFlagIndirectMaterial marks a render batch whose material index is
// stored in the secondary bounding box field instead of MaterialID.
const BatchFlagIndirectMaterial = 2

// MaterialRefKind tells how a render batch references its material.
type MaterialRefKind uint8

const (
	MaterialDirect MaterialRefKind = iota
	MaterialIndirect
)

// MaterialRef is a render batch's resolved reference into the material table.
type MaterialRef struct {
	Kind  MaterialRefKind
	Index int
}

// RenderBatch is a contiguous face range within a group bound to one material.
type RenderBatch struct {
	PossibleBox1 [3]int16    `json:"possibleBox1"`
	PossibleBox2 [3]int16    `json:"possibleBox2"`
	FirstFace    uint32      `json:"firstFace"`
	NumFaces     uint16      `json:"numFaces"`
	FirstVertex  uint16      `json:"firstVertex"`
	LastVertex   uint16      `json:"lastVertex"`
	Flags        uint8       `json:"flags"`
	MaterialID   uint8       `json:"materialID"`
	Material     MaterialRef `json:"-"`
}

// resolveMaterialRef decides once how the batch addresses its material.
func (b *RenderBatch) resolveMaterialRef() {
	if b.Flags == BatchFlagIndirectMaterial {
		b.Material = MaterialRef{Kind: MaterialIndirect, Index: int(b.PossibleBox2[2])}
		return
	}
	b.Material = MaterialRef{Kind: MaterialDirect, Index: int(b.MaterialID)}
}

// MaterialInfo is one MOPY entry (per triangle).
type MaterialInfo struct {
	Flags      uint8 `json:"flags"`
	MaterialID uint8 `json:"materialID"`
}

// Group is one renderable partition of a WMO, decoded from its own group file.
type Group struct {
	Version      uint32
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
	FogIndices   [4]uint8
	LiquidType   uint32
	GroupID      uint32
	Flags2       uint32

	MaterialInfo  []MaterialInfo
	Indices       []uint16
	Vertices      []float32   // 3 per vertex
	Normals       []float32   // 3 per vertex, co-indexed with Vertices
	UVs           [][]float32 // one array per UV layer, 2 per vertex
	RenderBatches []RenderBatch
	VertexColours []uint32
}

// VertexCount returns the number of vertices in the group.
func (g *Group) VertexCount() int {
	return len(g.Vertices) / 3
}

// Asset is a fully decoded WMO root file. It is read-only once loaded.
type Asset struct {
	FileDataID uint32
	FileName   string
	Version    uint32

	MaterialCount uint32
	GroupCount    uint32
	PortalCount   uint32
	LightCount    uint32
	ModelCount    uint32
	DoodadCount   uint32
	SetCount      uint32
	LODCount      uint16

	AmbientColor uint32
	AreaTableID  uint32
	BoundingBox1 [3]float32
	BoundingBox2 [3]float32
	Flags        uint16

	TextureNames   NameTable // nil when the asset has no MOTX chunk
	Materials      []Material
	GroupNames     NameTable
	GroupInfo      []GroupInfo
	PortalVertices []float32
	PortalInfo     []PortalInfo
	PortalRefs     []PortalRef
	DoodadSets     []DoodadSet
	DoodadNames    NameTable
	FileDataIDs    []uint32 // nil when the asset has no MODI chunk
	Doodads        []Doodad
	Fogs           []Fog
	GroupIDs       []uint32

	// TextureAddressing is ByName when the asset carries a texture name table.
	TextureAddressing Addressing
	// DoodadAddressing is ByID when the asset carries a doodad file ID table.
	DoodadAddressing Addressing
}

// GroupName returns the display name of a group, or an empty string.
func (a *Asset) GroupName(g *Group) string {
	name, _ := a.GroupNames.Lookup(g.NameOffset)
	return name
}

// DoodadSetInstances returns the slice of the doodad table owned by a set.
// Out-of-range sets are clamped to the table bounds.
func (a *Asset) DoodadSetInstances(set DoodadSet) []Doodad {
	start := int(set.FirstInstanceIndex)
	end := start + int(set.DoodadCount)
	if start > len(a.Doodads) {
		start = len(a.Doodads)
	}
	if end > len(a.Doodads) {
		end = len(a.Doodads)
	}
	return a.Doodads[start:end]
}
