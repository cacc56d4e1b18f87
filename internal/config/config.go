// Package config handles exporter configuration loading and management.
package config

import (
	"fmt"

	"github.com/Faultbox/wmoexport/internal/export"
)

// Path formats written into material libraries and placement tables.
const (
	PathFormatPosix = "posix"
	PathFormatWin32 = "win32"
)

// Config holds all exporter settings.
type Config struct {
	Export  ExportConfig  `yaml:"export"`
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// ExportConfig holds export behavior settings.
type ExportConfig struct {
	ExportDir        string `yaml:"export_dir"` // Shared output root
	ExportTextures   bool   `yaml:"export_textures"`
	ExportAlpha      bool   `yaml:"export_alpha"`
	ExportUV2        bool   `yaml:"export_uv2"`
	ExportMeta       bool   `yaml:"export_meta"`
	OverwriteFiles   bool   `yaml:"overwrite_files"`
	RemovePathSpaces bool   `yaml:"remove_path_spaces"`
	SharedTextures   bool   `yaml:"shared_textures"`
	AbsoluteCSVPaths bool   `yaml:"absolute_csv_paths"`
	PathFormat       string `yaml:"path_format"`    // posix or win32
	TextureFormat    string `yaml:"texture_format"` // png, webp or raw
}

// DataConfig holds game data locations.
type DataConfig struct {
	Listfile     string   `yaml:"listfile"`      // id;name lines
	Archives     []string `yaml:"archives"`      // GRF archives, last wins
	Directories  []string `yaml:"directories"`   // Loose-file roots, last wins
	NameEncoding string   `yaml:"name_encoding"` // Code page of archive names
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Export: ExportConfig{
			ExportDir:      "export",
			ExportTextures: true,
			ExportAlpha:    true,
			PathFormat:     PathFormatPosix,
			TextureFormat:  "png",
		},
		Data: DataConfig{
			Listfile:     "listfile.csv",
			NameEncoding: "Windows-1252",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Export.ExportDir == "" {
		return export.ErrNoExportDir
	}
	switch c.Export.PathFormat {
	case "", PathFormatPosix, PathFormatWin32:
	default:
		return fmt.Errorf("invalid path_format %q", c.Export.PathFormat)
	}
	return nil
}

// ExportOptions converts the export settings into exporter options.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		ExportDir:        c.Export.ExportDir,
		ExportTextures:   c.Export.ExportTextures,
		ExportAlpha:      c.Export.ExportAlpha,
		ExportUV2:        c.Export.ExportUV2,
		ExportMeta:       c.Export.ExportMeta,
		OverwriteFiles:   c.Export.OverwriteFiles,
		RemovePathSpaces: c.Export.RemovePathSpaces,
		SharedTextures:   c.Export.SharedTextures,
		AbsoluteCSVPaths: c.Export.AbsoluteCSVPaths,
		PosixPaths:       c.Export.PathFormat != PathFormatWin32,
	}
}
