package export

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Faultbox/wmoexport/pkg/wmo"
)

// Submesh is one render batch of the assembled geometry.
type Submesh struct {
	Name     string
	Indices  []uint32
	Material string // empty when the batch's material has no bound texture
}

// Geometry is the flattened mesh of all selected groups.
type Geometry struct {
	Vertices  []float32
	Normals   []float32
	UVs       [][]float32
	Submeshes []Submesh
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	return len(g.Vertices) / 3
}

// collectGroups loads the groups that take part in the export: those
// selected by the group mask and having at least one render batch. A nil
// slice with a nil error means the export was cancelled.
func (e *Exporter) collectGroups(ctx context.Context, asset *wmo.Asset) ([]*wmo.Group, error) {
	count := int(asset.GroupCount)
	e.progress.SetTaskMax(count)

	groups := make([]*wmo.Group, 0, count)
	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return nil, nil
		}
		e.progress.SetTaskValue(i)

		if !e.groupMask.Includes(i) {
			continue
		}

		group, err := e.src.Group(ctx, i)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil
			}
			return nil, fmt.Errorf("loading group %d: %w", i, err)
		}

		if len(group.RenderBatches) == 0 {
			continue
		}
		groups = append(groups, group)
	}
	return groups, nil
}

// assembleGeometry builds flattened buffers in two passes: the first sizes
// them, the second copies each group at its running vertex offset.
func assembleGeometry(asset *wmo.Asset, groups []*wmo.Group, binding MaterialBinding, uv2 bool) *Geometry {
	vertexCount := 0
	layerCount := 0
	for _, group := range groups {
		vertexCount += group.VertexCount()
		layerCount = max(layerCount, len(group.UVs))
	}
	if !uv2 {
		layerCount = min(layerCount, 1)
	}

	geom := &Geometry{
		Vertices: make([]float32, vertexCount*3),
		Normals:  make([]float32, vertexCount*3),
		UVs:      make([][]float32, layerCount),
	}
	for i := range geom.UVs {
		geom.UVs[i] = make([]float32, vertexCount*2)
	}

	offset := 0
	for _, group := range groups {
		n := group.VertexCount()

		copy(geom.Vertices[offset*3:], group.Vertices)
		copy(geom.Normals[offset*3:], group.Normals)

		// Missing layers stay zero-filled.
		for layer := 0; layer < layerCount && layer < len(group.UVs); layer++ {
			uv := group.UVs[layer]
			if len(uv) > n*2 {
				uv = uv[:n*2]
			}
			copy(geom.UVs[layer][offset*2:], uv)
		}

		groupName := asset.GroupName(group)
		for b, batch := range group.RenderBatches {
			indices := make([]uint32, batch.NumFaces)
			for k := range indices {
				indices[k] = uint32(group.Indices[int(batch.FirstFace)+k]) + uint32(offset)
			}

			geom.Submeshes = append(geom.Submeshes, Submesh{
				Name:     groupName + strconv.Itoa(b),
				Indices:  indices,
				Material: binding[batch.Material.Index],
			})
		}

		offset += n
	}

	return geom
}
