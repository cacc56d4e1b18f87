package config

import "flag"

var (
	flagConfig    = flag.String("config", "", "Path to config file")
	flagDebug     = flag.Bool("debug", false, "Enable debug logging")
	flagOut       = flag.String("out", "", "Shared export directory")
	flagOverwrite = flag.Bool("overwrite", false, "Overwrite existing files")
	flagListfile  = flag.String("listfile", "", "Path to listfile")
	flagMeta      = flag.Bool("meta", false, "Write the structured dump")
	flagUV2       = flag.Bool("uv2", false, "Export secondary UV layers")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagOut != "" {
		cfg.Export.ExportDir = *flagOut
	}
	if *flagOverwrite {
		cfg.Export.OverwriteFiles = true
	}
	if *flagListfile != "" {
		cfg.Data.Listfile = *flagListfile
	}
	if *flagMeta {
		cfg.Export.ExportMeta = true
	}
	if *flagUV2 {
		cfg.Export.ExportUV2 = true
	}
}
