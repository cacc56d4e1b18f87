package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/wmoexport/internal/export"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Export.ExportDir != "export" {
		t.Errorf("expected export dir 'export', got %s", cfg.Export.ExportDir)
	}
	if !cfg.Export.ExportTextures || !cfg.Export.ExportAlpha {
		t.Error("expected textures with alpha to be exported by default")
	}
	if cfg.Export.OverwriteFiles {
		t.Error("expected overwrite to be disabled by default")
	}
	if cfg.Export.PathFormat != PathFormatPosix {
		t.Errorf("expected posix paths, got %s", cfg.Export.PathFormat)
	}
	if cfg.Data.NameEncoding != "Windows-1252" {
		t.Errorf("expected Windows-1252 name encoding, got %s", cfg.Data.NameEncoding)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
export:
  export_dir: "/srv/export"
  export_uv2: true
  export_meta: true
  overwrite_files: true
  remove_path_spaces: true
  shared_textures: true
  absolute_csv_paths: true
  path_format: win32
  texture_format: webp

data:
  listfile: "/data/listfile.csv"
  archives:
    - "data.grf"
    - "patch.grf"
  directories:
    - "/data/loose"
  name_encoding: "EUC-KR"

logging:
  level: "debug"
  log_file: "export.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.ExportDir != "/srv/export" {
		t.Errorf("expected export dir /srv/export, got %s", cfg.Export.ExportDir)
	}
	if !cfg.Export.ExportTextures {
		t.Error("expected export_textures to keep its default")
	}
	if cfg.Export.TextureFormat != "webp" {
		t.Errorf("expected texture format webp, got %s", cfg.Export.TextureFormat)
	}
	if len(cfg.Data.Archives) != 2 || cfg.Data.Archives[1] != "patch.grf" {
		t.Errorf("unexpected archives %v", cfg.Data.Archives)
	}
	if cfg.Data.NameEncoding != "EUC-KR" {
		t.Errorf("expected EUC-KR, got %s", cfg.Data.NameEncoding)
	}
	if cfg.Logging.LogFile != "export.log" {
		t.Errorf("expected log file 'export.log', got %s", cfg.Logging.LogFile)
	}

	opts := cfg.ExportOptions()
	want := export.Options{
		ExportDir:        "/srv/export",
		ExportTextures:   true,
		ExportAlpha:      true,
		ExportUV2:        true,
		ExportMeta:       true,
		OverwriteFiles:   true,
		RemovePathSpaces: true,
		SharedTextures:   true,
		AbsoluteCSVPaths: true,
		PosixPaths:       false,
	}
	if opts != want {
		t.Errorf("ExportOptions = %+v, want %+v", opts, want)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
export:
  export_uv2: not a bool
  invalid syntax here
`

	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Export.ExportDir = ""
	if err := cfg.Validate(); !errors.Is(err, export.ErrNoExportDir) {
		t.Errorf("expected ErrNoExportDir, got %v", err)
	}

	cfg = Default()
	cfg.Export.PathFormat = "dos"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown path format")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("config.yaml", []byte("export:\n  export_dir: out\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "out flag",
			setup: func() { *flagOut = "/tmp/out" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Export.ExportDir != "/tmp/out" {
					t.Errorf("expected export dir /tmp/out, got %s", cfg.Export.ExportDir)
				}
			},
			teardown: func() { *flagOut = "" },
		},
		{
			name:  "listfile flag",
			setup: func() { *flagListfile = "ids.csv" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Data.Listfile != "ids.csv" {
					t.Errorf("expected listfile ids.csv, got %s", cfg.Data.Listfile)
				}
			},
			teardown: func() { *flagListfile = "" },
		},
		{
			name: "boolean flags",
			setup: func() {
				*flagOverwrite = true
				*flagMeta = true
				*flagUV2 = true
			},
			verify: func(t *testing.T, cfg *Config) {
				if !cfg.Export.OverwriteFiles || !cfg.Export.ExportMeta || !cfg.Export.ExportUV2 {
					t.Errorf("expected overwrite, meta and uv2 enabled, got %+v", cfg.Export)
				}
			},
			teardown: func() {
				*flagOverwrite = false
				*flagMeta = false
				*flagUV2 = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
export:
  export_dir: "from-file"
  texture_format: webp
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagOut = "from-flag"
	defer func() {
		*flagConfig = ""
		*flagOut = ""
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Export.ExportDir != "from-flag" {
		t.Errorf("expected export dir from flag, got %s", cfg.Export.ExportDir)
	}
	if cfg.Export.TextureFormat != "webp" {
		t.Errorf("expected texture format from file, got %s", cfg.Export.TextureFormat)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Export.ExportMeta = true
	cfg.Data.Archives = []string{"data.grf"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loading saved config: %v", err)
	}
	if !loaded.Export.ExportMeta || len(loaded.Data.Archives) != 1 {
		t.Errorf("saved config not restored: %+v", loaded)
	}
}

func TestLoadFromFileUnknownKey(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("export:\n  overwrite_file: true\n"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error for unknown key overwrite_file")
	}
}

func TestLoadFromFileEmpty(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, nil, 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("empty config must keep defaults: %v", err)
	}
	if cfg.Export.ExportDir != "export" {
		t.Errorf("expected default export dir, got %s", cfg.Export.ExportDir)
	}
}

func TestFindConfigFileUserDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("APPDATA", t.TempDir())
	t.Chdir(t.TempDir())

	want := filepath.Join(ConfigDir(), "config.yaml")
	if err := os.MkdirAll(filepath.Dir(want), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(want, []byte("export:\n  export_dir: out\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := findConfigFile(); got != want {
		t.Errorf("findConfigFile = %q, want %q", got, want)
	}
}
