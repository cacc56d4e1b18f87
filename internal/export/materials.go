package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/internal/writers"
	"github.com/Faultbox/wmoexport/pkg/wmo"
)

// TextureEntry is the resolved outcome of one texture reference.
type TextureEntry struct {
	FileDataID   uint32
	RelativePath string // as written into material libraries
	Path         string // absolute output path
	MaterialName string
}

// TextureMap holds the texture entries of one export keyed by file identifier.
type TextureMap struct {
	entries map[uint32]*TextureEntry
	order   []uint32
}

func newTextureMap() *TextureMap {
	return &TextureMap{entries: make(map[uint32]*TextureEntry)}
}

func (m *TextureMap) set(entry *TextureEntry) {
	if _, ok := m.entries[entry.FileDataID]; !ok {
		m.order = append(m.order, entry.FileDataID)
	}
	m.entries[entry.FileDataID] = entry
}

// Get returns the entry for a file identifier.
func (m *TextureMap) Get(fileDataID uint32) (*TextureEntry, bool) {
	e, ok := m.entries[fileDataID]
	return e, ok
}

// Entries returns all entries in resolution order.
func (m *TextureMap) Entries() []*TextureEntry {
	out := make([]*TextureEntry, len(m.order))
	for i, id := range m.order {
		out[i] = m.entries[id]
	}
	return out
}

// Len returns the number of entries.
func (m *TextureMap) Len() int {
	return len(m.order)
}

// MaterialBinding maps a material table index to the material name of its
// first resolved texture slot.
type MaterialBinding map[int]string

// resolvedFile is a reference resolved to a file identifier and, when known,
// its file name.
type resolvedFile struct {
	FileDataID uint32
	Name       string
}

// resolveTextureRef resolves one material slot using the asset's texture
// addressing mode.
func (e *Exporter) resolveTextureRef(asset *wmo.Asset, ref uint32) Result[resolvedFile] {
	if ref == 0 {
		return skipped[resolvedFile](SkipUnused, nil)
	}

	switch asset.TextureAddressing {
	case wmo.AddressByName:
		name, ok := asset.TextureNames.Lookup(ref)
		if !ok {
			return skipped[resolvedFile](SkipUnresolved, nil)
		}
		id, ok := e.deps.Lookup.FileDataID(name)
		if !ok || id == 0 {
			return skipped[resolvedFile](SkipUnresolved, nil)
		}
		return resolved(resolvedFile{FileDataID: id, Name: name})

	default:
		name, _ := e.deps.Lookup.FileName(ref)
		return resolved(resolvedFile{FileDataID: ref, Name: name})
	}
}

// resolveTextures resolves every material slot, writes the texture images
// and builds the material binding. mtl may be nil. On cancellation it
// returns what was resolved so far.
func (e *Exporter) resolveTextures(ctx context.Context, asset *wmo.Asset, out string, mtl *writers.MTLWriter) (*TextureMap, MaterialBinding) {
	textures := newTextureMap()
	binding := make(MaterialBinding)

	if !e.opts.ExportTextures {
		return textures, binding
	}

	e.progress.SetTaskMax(len(asset.Materials))

	for i, material := range asset.Materials {
		if ctx.Err() != nil {
			return textures, binding
		}
		e.progress.SetTaskValue(i)

		for _, ref := range material.Textures() {
			file := e.resolveTextureRef(asset, ref)
			if !file.OK() {
				continue
			}

			result := e.exportTexture(ctx, file.Value, out)
			if !result.OK() {
				logger.Warn("failed to export texture",
					zap.Uint32("fileDataID", file.Value.FileDataID),
					zap.Int("material", i),
					zap.Error(result.Err))
				continue
			}

			entry := result.Value
			if mtl != nil {
				mtl.AddMaterial(entry.MaterialName, entry.RelativePath)
			}
			textures.set(entry)

			// One material per face in the consuming formats: bind the first slot only.
			if _, ok := binding[i]; !ok {
				binding[i] = entry.MaterialName
			}
		}
	}

	return textures, binding
}

// materialName derives the material library name of a texture.
func (e *Exporter) materialName(file resolvedFile) string {
	name := "mat_" + strconv.FormatUint(uint64(file.FileDataID), 10)
	if file.Name != "" {
		name = "mat_" + strings.TrimSuffix(baseName(strings.ToLower(file.Name)), ".blp")
	}
	if e.opts.RemovePathSpaces {
		name = stripSpaces(name)
	}
	return name
}

// exportTexture writes one texture image unless it exists and overwrite is
// disabled, and returns its entry.
func (e *Exporter) exportTexture(ctx context.Context, file resolvedFile, out string) Result[*TextureEntry] {
	ext := e.deps.Textures.Extension()
	outDir := filepath.Dir(out)

	texFile := strconv.FormatUint(uint64(file.FileDataID), 10) + ext
	texPath := filepath.Join(outDir, texFile)

	fileName := file.Name
	if e.opts.RemovePathSpaces {
		fileName = stripSpaces(fileName)
	}

	if e.opts.SharedTextures {
		if fileName != "" {
			fileName = replaceExt(fileName, ext)
		} else {
			fileName = e.deps.Lookup.FormatUnknown(file.FileDataID, ext)
		}
		texPath = e.exportPath(fileName)
		texFile = relativeTo(outDir, texPath)
	}

	if e.opts.OverwriteFiles || !writers.FileExists(texPath) {
		data, err := e.deps.Storage.Fetch(ctx, file.FileDataID)
		if err != nil {
			return skipped[*TextureEntry](SkipFailed, fmt.Errorf("fetching: %w", err))
		}

		converted, err := e.deps.Textures.Convert(data, e.opts.ExportAlpha)
		if err != nil {
			return skipped[*TextureEntry](SkipFailed, fmt.Errorf("converting: %w", err))
		}

		logger.Debug("exporting texture", zap.Uint32("fileDataID", file.FileDataID), zap.String("path", texPath))
		if _, err := writers.WriteBytes(texPath, converted, true); err != nil {
			return skipped[*TextureEntry](SkipFailed, err)
		}
	} else {
		logger.Info("skipping texture export, file exists and overwrite is disabled", zap.String("path", texPath))
	}

	return resolved(&TextureEntry{
		FileDataID:   file.FileDataID,
		RelativePath: e.outputPath(texFile),
		Path:         texPath,
		MaterialName: e.materialName(file),
	})
}
