package export

import (
	"context"

	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/internal/writers"
	"github.com/Faultbox/wmoexport/pkg/wmo"
)

type metaCounts struct {
	Material uint32 `json:"material"`
	Group    uint32 `json:"group"`
	Portal   uint32 `json:"portal"`
	Light    uint32 `json:"light"`
	Model    uint32 `json:"model"`
	Doodad   uint32 `json:"doodad"`
	Set      uint32 `json:"set"`
	LOD      uint16 `json:"lod"`
}

type metaGroup struct {
	GroupName        string             `json:"groupName"`
	GroupDescription string             `json:"groupDescription"`
	Enabled          bool               `json:"enabled"`
	Version          uint32             `json:"version"`
	Flags            uint32             `json:"flags"`
	BoundingBox1     [3]float32         `json:"boundingBox1"`
	BoundingBox2     [3]float32         `json:"boundingBox2"`
	NumPortals       uint16             `json:"numPortals"`
	NumBatchesA      uint16             `json:"numBatchesA"`
	NumBatchesB      uint16             `json:"numBatchesB"`
	NumBatchesC      uint16             `json:"numBatchesC"`
	LiquidType       uint32             `json:"liquidType"`
	GroupID          uint32             `json:"groupID"`
	MaterialInfo     []wmo.MaterialInfo `json:"materialInfo"`
	RenderBatches    []wmo.RenderBatch  `json:"renderBatches"`
	VertexColours    []uint32           `json:"vertexColours"`
}

type metaTexture struct {
	FileDataID       uint32 `json:"fileDataID"`
	FileNameInternal string `json:"fileNameInternal"`
	FileNameExternal string `json:"fileNameExternal"`
	MTLName          string `json:"mtlName"`
}

func metaPath(out string) string {
	return replaceExt(out, ".json")
}

// exportMeta writes the structured dump of the asset next to out.
func (e *Exporter) exportMeta(ctx context.Context, asset *wmo.Asset, out string, textures *TextureMap) (bool, error) {
	w := writers.NewJSONWriter(metaPath(out))

	w.AddProperty("fileDataID", asset.FileDataID)
	w.AddProperty("fileName", asset.FileName)
	w.AddProperty("version", asset.Version)
	w.AddProperty("counts", metaCounts{
		Material: asset.MaterialCount,
		Group:    asset.GroupCount,
		Portal:   asset.PortalCount,
		Light:    asset.LightCount,
		Model:    asset.ModelCount,
		Doodad:   asset.DoodadCount,
		Set:      asset.SetCount,
		LOD:      asset.LODCount,
	})
	w.AddProperty("portalVertices", portalVertices(asset.PortalVertices))
	w.AddProperty("portalInfo", orEmpty(asset.PortalInfo))
	w.AddProperty("portalMapObjectRef", orEmpty(asset.PortalRefs))
	w.AddProperty("ambientColor", asset.AmbientColor)
	w.AddProperty("areaTableID", asset.AreaTableID)
	w.AddProperty("boundingBox1", asset.BoundingBox1)
	w.AddProperty("boundingBox2", asset.BoundingBox2)
	w.AddProperty("fog", orEmpty(asset.Fogs))
	w.AddProperty("flags", asset.Flags)
	w.AddProperty("groups", e.metaGroups(ctx, asset))
	w.AddProperty("groupNames", orEmpty(asset.GroupNames.Values()))
	w.AddProperty("groupInfo", orEmpty(asset.GroupInfo))
	w.AddProperty("textures", e.metaTextures(asset, textures))
	w.AddProperty("materials", orEmpty(asset.Materials))
	w.AddProperty("doodadSets", orEmpty(asset.DoodadSets))
	w.AddProperty("fileDataIDs", orEmpty(asset.FileDataIDs))
	w.AddProperty("doodads", orEmpty(asset.Doodads))
	w.AddProperty("groupIDs", orEmpty(asset.GroupIDs))

	return w.Write(e.opts.OverwriteFiles)
}

// metaGroups describes every group. Groups that fail to load are left out.
func (e *Exporter) metaGroups(ctx context.Context, asset *wmo.Asset) []metaGroup {
	groups := make([]metaGroup, 0, asset.GroupCount)
	for i := 0; i < int(asset.GroupCount); i++ {
		if ctx.Err() != nil {
			break
		}

		group, err := e.src.Group(ctx, i)
		if err != nil {
			logger.Warn("failed to load group for metadata", zap.Int("group", i), zap.Error(err))
			continue
		}

		desc, _ := asset.GroupNames.Lookup(group.DescOffset)
		groups = append(groups, metaGroup{
			GroupName:        asset.GroupName(group),
			GroupDescription: desc,
			Enabled:          e.groupMask.Includes(i),
			Version:          group.Version,
			Flags:            group.Flags,
			BoundingBox1:     group.BoundingBox1,
			BoundingBox2:     group.BoundingBox2,
			NumPortals:       group.NumPortals,
			NumBatchesA:      group.NumBatchesA,
			NumBatchesB:      group.NumBatchesB,
			NumBatchesC:      group.NumBatchesC,
			LiquidType:       group.LiquidType,
			GroupID:          group.GroupID,
			MaterialInfo:     orEmpty(group.MaterialInfo),
			RenderBatches:    orEmpty(group.RenderBatches),
			VertexColours:    orEmpty(group.VertexColours),
		})
	}
	return groups
}

// metaTextures lists each distinct non-zero texture reference once, in
// material order, with its exported file when there is one.
func (e *Exporter) metaTextures(asset *wmo.Asset, textures *TextureMap) []metaTexture {
	seen := make(map[uint32]bool)
	var out []metaTexture

	for _, material := range asset.Materials {
		for _, ref := range material.Textures() {
			if ref == 0 || seen[ref] {
				continue
			}
			seen[ref] = true

			var tex metaTexture
			if file := e.resolveTextureRef(asset, ref); file.OK() {
				tex.FileDataID = file.Value.FileDataID
				tex.FileNameInternal = file.Value.Name
			} else if name, ok := asset.TextureNames.Lookup(ref); ok {
				tex.FileNameInternal = name
			}
			if entry, ok := textures.Get(tex.FileDataID); ok && tex.FileDataID != 0 {
				tex.FileNameExternal = entry.RelativePath
				tex.MTLName = entry.MaterialName
			}
			out = append(out, tex)
		}
	}
	return orEmpty(out)
}

func portalVertices(flat []float32) [][3]float32 {
	out := make([][3]float32, 0, len(flat)/3)
	for i := 0; i+2 < len(flat); i += 3 {
		out = append(out, [3]float32{flat[i], flat[i+1], flat[i+2]})
	}
	return out
}

// orEmpty keeps empty tables as [] rather than null in the dump.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
