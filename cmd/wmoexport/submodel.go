package main

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/internal/writers"
)

// rawSubModels stores placed sub-models as their original model file next
// to the path the placement table points at. Converting them to meshes is
// left to a model exporter; the placement table keeps naming the mesh path.
type rawSubModels struct {
	overwrite bool
	notice    sync.Once
}

func (r *rawSubModels) ExportAsOBJ(ctx context.Context, data []byte, fileDataID uint32, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := strings.TrimSuffix(out, filepath.Ext(out)) + ".m2"
	r.notice.Do(func() {
		logger.Warn("sub-models are stored unconverted, placement rows name mesh files that are not written",
			zap.String("stored", path),
			zap.String("placement", out))
	})

	written, err := writers.WriteBytes(path, data, r.overwrite)
	if err != nil {
		return err
	}
	if written {
		logger.Debug("sub-model stored", zap.Uint32("fileDataID", fileDataID), zap.String("path", path))
	}
	return nil
}
