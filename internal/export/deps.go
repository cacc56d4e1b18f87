package export

import (
	"context"

	"github.com/Faultbox/wmoexport/pkg/wmo"
)

// AssetSource provides the decoded asset. Load is idempotent.
type AssetSource interface {
	Load(ctx context.Context) (*wmo.Asset, error)
	Group(ctx context.Context, index int) (*wmo.Group, error)
}

// Storage fetches raw file bytes by identifier.
type Storage interface {
	Fetch(ctx context.Context, fileDataID uint32) ([]byte, error)
}

// Lookup maps between file names and identifiers.
type Lookup interface {
	FileDataID(name string) (uint32, bool)
	FileName(fileDataID uint32) (string, bool)
	FormatUnknown(fileDataID uint32, ext string) string
}

// TextureConverter turns a texture blob into the bytes of an output image.
type TextureConverter interface {
	Convert(data []byte, alpha bool) ([]byte, error)
	// Extension is the output file extension including the dot.
	Extension() string
}

// SubModelExporter exports a placed sub-model to a mesh bundle at out.
type SubModelExporter interface {
	ExportAsOBJ(ctx context.Context, data []byte, fileDataID uint32, out string) error
}

// Progress receives purely observational progress updates.
type Progress interface {
	SetTaskName(name string)
	SetTaskMax(max int)
	SetTaskValue(value int)
	ClearTask()
}

// Deps bundles the collaborators of an Exporter. SubModels and Progress may
// be nil: without SubModels placements are written but no sub-model is
// exported.
type Deps struct {
	Storage   Storage
	Lookup    Lookup
	Textures  TextureConverter
	SubModels SubModelExporter
	Progress  Progress
}

type nopProgress struct{}

func (nopProgress) SetTaskName(string) {}
func (nopProgress) SetTaskMax(int)     {}
func (nopProgress) SetTaskValue(int)   {}
func (nopProgress) ClearTask()         {}
