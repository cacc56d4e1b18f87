package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/assets"
	"github.com/Faultbox/wmoexport/internal/config"
	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/internal/texture"
	"github.com/Faultbox/wmoexport/pkg/encoding"
	"github.com/Faultbox/wmoexport/pkg/listfile"
	"github.com/Faultbox/wmoexport/pkg/wmo"
)

// env holds the services shared by every command.
type env struct {
	cfg      *config.Config
	names    *listfile.Listfile
	storage  *assets.Manager
	textures *texture.Converter
}

func setup() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	if err := encoding.SetNameEncoding(cfg.Data.NameEncoding); err != nil {
		return nil, err
	}

	format, err := texture.ParseFormat(cfg.Export.TextureFormat)
	if err != nil {
		return nil, err
	}

	names := listfile.New()
	if cfg.Data.Listfile != "" {
		loaded, err := listfile.Load(cfg.Data.Listfile)
		if err != nil {
			logger.Warn("listfile not loaded, names will not resolve", zap.String("path", cfg.Data.Listfile), zap.Error(err))
		} else {
			names = loaded
		}
	}

	storage := assets.NewManager(names)
	for _, dir := range cfg.Data.Directories {
		if err := storage.AddDirectory(dir); err != nil {
			storage.Close()
			return nil, err
		}
	}
	for _, path := range cfg.Data.Archives {
		if err := storage.AddArchive(path); err != nil {
			storage.Close()
			return nil, err
		}
	}

	logger.Debug("environment ready",
		zap.Int("names", names.Len()),
		zap.Int("archives", len(cfg.Data.Archives)),
		zap.Int("directories", len(cfg.Data.Directories)),
		zap.String("textureFormat", format.String()))

	return &env{
		cfg:      cfg,
		names:    names,
		storage:  storage,
		textures: texture.NewConverter(format),
	}, nil
}

func (e *env) Close() {
	hits, misses := e.storage.CacheStats()
	logger.Debug("blob cache", zap.Int64("hits", hits), zap.Int64("misses", misses))
	e.storage.Close()
}

// asset is a root file resolved from a command-line argument.
type asset struct {
	fileDataID uint32
	fileName   string
}

// resolveAsset accepts a numeric file data ID or a listfile name.
func resolveAsset(names *listfile.Listfile, arg string) (asset, error) {
	if id, err := strconv.ParseUint(arg, 10, 32); err == nil {
		if id == 0 {
			return asset{}, fmt.Errorf("invalid file data ID %q", arg)
		}
		name, _ := names.FileName(uint32(id))
		return asset{fileDataID: uint32(id), fileName: name}, nil
	}

	name := encoding.NormalizePath(arg)
	id, ok := names.FileDataID(name)
	if !ok {
		return asset{}, fmt.Errorf("%s is not in the listfile", arg)
	}
	return asset{fileDataID: id, fileName: name}, nil
}

func (a asset) String() string {
	if a.fileName != "" {
		return a.fileName
	}
	return strconv.FormatUint(uint64(a.fileDataID), 10)
}

// isGroupFile reports whether a name looks like a group file (<root>_NNN.wmo),
// which cannot be exported on its own.
func isGroupFile(name string) bool {
	base := strings.TrimSuffix(strings.ToLower(name), ".wmo")
	i := strings.LastIndexByte(base, '_')
	if i < 0 || len(base)-i-1 != 3 {
		return false
	}
	_, err := strconv.Atoi(base[i+1:])
	return err == nil
}

// open fetches a root file and returns its loader.
func (e *env) open(ctx context.Context, a asset) (*wmo.Loader, error) {
	if isGroupFile(a.fileName) {
		return nil, fmt.Errorf("%s is a group file, export its root instead", a)
	}

	data, err := e.storage.Fetch(ctx, a.fileDataID)
	if err != nil {
		return nil, err
	}
	return wmo.NewLoader(data, a.fileDataID, a.fileName, e.storage, e.names), nil
}
