package export

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/internal/writers"
	"github.com/Faultbox/wmoexport/pkg/wmo"
)

// PlacementFields are the placement table columns, in order.
var PlacementFields = []string{
	"ModelFile",
	"PositionX", "PositionY", "PositionZ",
	"RotationW", "RotationX", "RotationY", "RotationZ",
	"ScaleFactor", "DoodadSet", "FileDataID",
}

// placementPath returns the placement table path for a model output path.
func placementPath(out string) string {
	return replaceExt(out, "_ModelPlacementInformation.csv")
}

// resolveDoodadRef resolves a doodad instance using the asset's doodad
// addressing mode. Identifier addressing indexes the file identifier table.
func (e *Exporter) resolveDoodadRef(asset *wmo.Asset, doodad wmo.Doodad) Result[resolvedFile] {
	switch asset.DoodadAddressing {
	case wmo.AddressByID:
		if int(doodad.Offset) >= len(asset.FileDataIDs) {
			return skipped[resolvedFile](SkipUnresolved, nil)
		}
		id := asset.FileDataIDs[doodad.Offset]
		if id == 0 {
			return skipped[resolvedFile](SkipUnresolved, nil)
		}
		name, _ := e.deps.Lookup.FileName(id)
		return resolved(resolvedFile{FileDataID: id, Name: name})

	default:
		name, ok := asset.DoodadNames.Lookup(doodad.Offset)
		if !ok {
			return skipped[resolvedFile](SkipUnresolved, nil)
		}
		id, ok := e.deps.Lookup.FileDataID(name)
		if !ok || id == 0 {
			return skipped[resolvedFile](SkipUnresolved, nil)
		}
		return resolved(resolvedFile{FileDataID: id, Name: name})
	}
}

// exportPlacements exports the sub-models of the selected doodad sets and
// writes one placement row per instance. The table is skipped entirely when
// it exists and overwrite is disabled.
func (e *Exporter) exportPlacements(ctx context.Context, asset *wmo.Asset, out string, manifest *Manifest) error {
	csvPath := placementPath(out)
	if !e.opts.OverwriteFiles && writers.FileExists(csvPath) {
		logger.Info("skipping model placement export, file exists and overwrite is disabled", zap.String("path", csvPath))
		return nil
	}

	csv := writers.NewCSVWriter(csvPath)
	csv.AddField(PlacementFields...)

	outDir := filepath.Dir(out)
	name := modelName(out)

	for i, set := range asset.DoodadSets {
		if ctx.Err() != nil {
			return nil
		}
		if !e.setMask.Includes(i) {
			continue
		}

		instances := asset.DoodadSetInstances(set)
		logger.Debug("exporting doodad set", zap.String("set", set.Name), zap.Int("doodads", len(instances)))
		e.progress.SetTaskName(name + ", doodad set " + set.Name)
		e.progress.SetTaskMax(len(instances))

		for j, doodad := range instances {
			if ctx.Err() != nil {
				return nil
			}
			e.progress.SetTaskValue(j)

			row := e.placeDoodad(ctx, asset, set, doodad, outDir)
			if ctx.Err() != nil {
				return nil
			}
			switch row.Reason {
			case Resolved:
				csv.AddRow(row.Value)
			case SkipFailed:
				logger.Warn("failed to export doodad",
					zap.String("set", set.Name),
					zap.Int("instance", int(set.FirstInstanceIndex)+j),
					zap.Error(row.Err))
			}
		}
	}

	if _, err := csv.Write(true); err != nil {
		return err
	}
	manifest.Add(KindPlacementTable, asset.FileDataID, csvPath)
	return nil
}

// placeDoodad exports the instance's sub-model once per session and returns
// its placement row.
func (e *Exporter) placeDoodad(ctx context.Context, asset *wmo.Asset, set wmo.DoodadSet, doodad wmo.Doodad, outDir string) Result[map[string]string] {
	ref := e.resolveDoodadRef(asset, doodad)
	if !ref.OK() {
		return skipped[map[string]string](ref.Reason, ref.Err)
	}
	id := ref.Value.FileDataID

	fileName := e.deps.Lookup.FormatUnknown(id, ".obj")
	if ref.Value.Name != "" {
		fileName = replaceExt(ref.Value.Name, ".obj")
	}
	modelPath := e.exportPath(fileName)

	if e.deps.SubModels != nil {
		_, err := e.session.exportOnce(ctx, id, func() error {
			data, err := e.deps.Storage.Fetch(ctx, id)
			if err != nil {
				return fmt.Errorf("fetching %d: %w", id, err)
			}
			return e.deps.SubModels.ExportAsOBJ(ctx, data, id, modelPath)
		})
		if err != nil {
			return skipped[map[string]string](SkipFailed, fmt.Errorf("sub-model %d: %w", id, err))
		}
	}

	csvModel := relativeTo(outDir, modelPath)
	if e.opts.AbsoluteCSVPaths {
		if abs, err := filepath.Abs(modelPath); err == nil {
			csvModel = abs
		}
	}

	return resolved(map[string]string{
		"ModelFile":   e.outputPath(csvModel),
		"PositionX":   formatFloat(doodad.Position[0]),
		"PositionY":   formatFloat(doodad.Position[1]),
		"PositionZ":   formatFloat(doodad.Position[2]),
		"RotationW":   formatFloat(doodad.Rotation[3]),
		"RotationX":   formatFloat(doodad.Rotation[0]),
		"RotationY":   formatFloat(doodad.Rotation[1]),
		"RotationZ":   formatFloat(doodad.Rotation[2]),
		"ScaleFactor": formatFloat(doodad.Scale),
		"DoodadSet":   set.Name,
		"FileDataID":  strconv.FormatUint(uint64(id), 10),
	})
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
