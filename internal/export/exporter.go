// Package export turns a decoded WMO into mesh bundles: an OBJ or glTF scene,
// its textures and material library, a placement table of sub-models and an
// optional structured dump.
package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/internal/writers"
	"github.com/Faultbox/wmoexport/pkg/wmo"
)

// Exporter exports one asset. Its methods must not be called concurrently;
// use one Exporter per goroutine and share the Session instead.
type Exporter struct {
	src      AssetSource
	deps     Deps
	opts     Options
	session  *Session
	progress Progress

	groupMask Mask
	setMask   Mask
}

// NewExporter creates an exporter for the asset provided by src. A nil
// session gives the exporter a private one.
func NewExporter(src AssetSource, deps Deps, opts Options, session *Session) *Exporter {
	if session == nil {
		session = NewSession()
	}
	progress := deps.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	return &Exporter{
		src:      src,
		deps:     deps,
		opts:     opts,
		session:  session,
		progress: progress,
	}
}

// SetGroupMask selects the groups that make up the geometry. nil selects all.
func (e *Exporter) SetGroupMask(mask Mask) { e.groupMask = mask }

// SetDoodadSetMask selects the doodad sets that are placed. nil selects all.
func (e *Exporter) SetDoodadSetMask(mask Mask) { e.setMask = mask }

// Session returns the de-duplication scope used for sub-models.
func (e *Exporter) Session() *Session { return e.session }

// modelName is the display name of an export: its output file name without
// extension.
func modelName(out string) string {
	return strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
}

// load validates the configuration and decodes the asset. A nil asset with
// a nil error means the export was cancelled.
func (e *Exporter) load(ctx context.Context) (*wmo.Asset, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}

	asset, err := e.src.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("loading asset: %w", err)
	}
	return asset, nil
}

func (e *Exporter) addTextures(manifest *Manifest, textures *TextureMap) {
	for _, entry := range textures.Entries() {
		manifest.Add(KindImage, entry.FileDataID, entry.Path)
	}
}

// ExportOBJ writes the asset as an OBJ mesh at out, with its textures,
// material library, placement table and, when enabled, its structured dump.
// When ctx is cancelled the artifacts produced so far are returned with a
// nil error.
func (e *Exporter) ExportOBJ(ctx context.Context, out string) (*Manifest, error) {
	manifest := &Manifest{}
	defer e.progress.ClearTask()

	asset, err := e.load(ctx)
	if err != nil || asset == nil {
		return manifestOrNil(manifest, err)
	}

	name := modelName(out)
	logger.Info("exporting WMO", zap.Uint32("fileDataID", asset.FileDataID), zap.String("path", out))

	obj := writers.NewOBJWriter(out)
	mtl := writers.NewMTLWriter(replaceExt(out, ".mtl"))
	obj.SetName(name)

	e.progress.SetTaskName(name + ", textures")
	textures, binding := e.resolveTextures(ctx, asset, out, mtl)
	if ctx.Err() != nil {
		return manifest, nil
	}
	e.addTextures(manifest, textures)

	e.progress.SetTaskName(name + ", groups")
	groups, err := e.collectGroups(ctx, asset)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return manifest, nil
	}

	geom := assembleGeometry(asset, groups, binding, e.opts.ExportUV2)
	obj.SetVertArray(geom.Vertices)
	obj.SetNormalArray(geom.Normals)
	for _, uv := range geom.UVs {
		obj.AddUVArray(uv)
	}
	for _, mesh := range geom.Submeshes {
		obj.AddMesh(mesh.Name, mesh.Indices, mesh.Material)
	}

	if err := e.exportPlacements(ctx, asset, out, manifest); err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return manifest, nil
	}

	if !mtl.IsEmpty() {
		obj.SetMaterialLibrary(filepath.Base(mtl.Path()))
	}

	if err := e.write(obj, asset, KindGeometry, manifest); err != nil {
		return nil, err
	}
	if !mtl.IsEmpty() {
		if err := e.write(mtl, asset, KindMaterialLibrary, manifest); err != nil {
			return nil, err
		}
	}

	if err := e.writeMeta(ctx, asset, out, textures, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ExportGLTF writes the asset as a glTF scene next to out, replacing its
// extension with .gltf. Every UV layer is written. Doodads are not placed.
func (e *Exporter) ExportGLTF(ctx context.Context, out string) (*Manifest, error) {
	manifest := &Manifest{}
	defer e.progress.ClearTask()

	asset, err := e.load(ctx)
	if err != nil || asset == nil {
		return manifestOrNil(manifest, err)
	}

	outGLTF := replaceExt(out, ".gltf")
	name := modelName(outGLTF)
	logger.Info("exporting WMO", zap.Uint32("fileDataID", asset.FileDataID), zap.String("path", outGLTF))

	e.progress.SetTaskName(name + ", textures")
	textures, binding := e.resolveTextures(ctx, asset, outGLTF, nil)
	if ctx.Err() != nil {
		return manifest, nil
	}
	e.addTextures(manifest, textures)

	e.progress.SetTaskName(name + ", groups")
	groups, err := e.collectGroups(ctx, asset)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return manifest, nil
	}

	geom := assembleGeometry(asset, groups, binding, true)

	scene := writers.NewGLTFWriter(outGLTF)
	scene.SetName(name)
	scene.SetVertArray(geom.Vertices)
	scene.SetNormalArray(geom.Normals)
	for _, uv := range geom.UVs {
		scene.AddUVArray(uv)
	}
	for _, mesh := range geom.Submeshes {
		scene.AddMesh(mesh.Name, mesh.Indices, mesh.Material)
	}

	bound := make([]writers.GLTFTexture, 0, textures.Len())
	for _, entry := range textures.Entries() {
		bound = append(bound, writers.GLTFTexture{MaterialName: entry.MaterialName, Path: entry.RelativePath})
	}
	scene.SetTextures(bound)

	if err := e.write(scene, asset, KindGeometry, manifest); err != nil {
		return nil, err
	}
	// The scene references its vertex data in a separate buffer file,
	// absent when there is no geometry.
	if writers.FileExists(scene.BufferPath()) {
		manifest.Add(KindGeometry, asset.FileDataID, scene.BufferPath())
	}
	if err := e.writeMeta(ctx, asset, outGLTF, textures, manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

type sink interface {
	Path() string
	Write(overwrite bool) (bool, error)
}

// write flushes an output sink and records it. An existing file kept
// because overwrite is disabled is still an artifact of the export.
func (e *Exporter) write(w sink, asset *wmo.Asset, kind Kind, manifest *Manifest) error {
	written, err := w.Write(e.opts.OverwriteFiles)
	if err != nil {
		return err
	}
	if !written {
		logger.Info("skipping export, file exists and overwrite is disabled", zap.String("path", w.Path()))
	}
	manifest.Add(kind, asset.FileDataID, w.Path())
	return nil
}

func (e *Exporter) writeMeta(ctx context.Context, asset *wmo.Asset, out string, textures *TextureMap, manifest *Manifest) error {
	if !e.opts.ExportMeta {
		return nil
	}

	e.progress.SetTaskName(modelName(out) + ", metadata")
	written, err := e.exportMeta(ctx, asset, out, textures)
	if err != nil {
		return err
	}
	if !written {
		logger.Info("skipping metadata export, file exists and overwrite is disabled", zap.String("path", metaPath(out)))
	}
	manifest.Add(KindStructuredDump, asset.FileDataID, metaPath(out))
	return nil
}

func manifestOrNil(manifest *Manifest, err error) (*Manifest, error) {
	if err != nil {
		return nil, err
	}
	return manifest, nil
}
