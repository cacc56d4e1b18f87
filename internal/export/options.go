package export

import "errors"

// Configuration errors. They are fatal to an export call.
var (
	ErrNoExportDir     = errors.New("export directory is not configured")
	ErrMissingStorage  = errors.New("export requires blob storage")
	ErrMissingLookup   = errors.New("export requires a file name lookup")
	ErrMissingTextures = errors.New("texture export requires a texture converter")
)

// Options controls what an export writes and how paths are formed.
type Options struct {
	// ExportDir is the shared output root used for sub-models and, with
	// SharedTextures, for textures.
	ExportDir string

	ExportTextures bool
	ExportAlpha    bool
	ExportUV2      bool
	ExportMeta     bool
	OverwriteFiles bool

	// RemovePathSpaces strips whitespace from texture paths and material
	// names, which material libraries do not tolerate.
	RemovePathSpaces bool
	// SharedTextures writes textures under ExportDir by their file name
	// instead of next to the model.
	SharedTextures bool
	// AbsoluteCSVPaths writes absolute model paths into the placement table.
	AbsoluteCSVPaths bool
	// PosixPaths writes relative paths with forward slashes.
	PosixPaths bool
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions(exportDir string) Options {
	return Options{
		ExportDir:      exportDir,
		ExportTextures: true,
		ExportAlpha:    true,
		PosixPaths:     true,
	}
}

func (e *Exporter) validate() error {
	if e.opts.ExportDir == "" {
		return ErrNoExportDir
	}
	if e.deps.Storage == nil {
		return ErrMissingStorage
	}
	if e.deps.Lookup == nil {
		return ErrMissingLookup
	}
	if e.opts.ExportTextures && e.deps.Textures == nil {
		return ErrMissingTextures
	}
	return nil
}
