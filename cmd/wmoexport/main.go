// wmoexport is a CLI utility that exports World Map Objects to OBJ or glTF.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Faultbox/wmoexport/internal/config"
	"github.com/Faultbox/wmoexport/internal/logger"
)

func main() {
	config.ParseFlags()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "obj":
		err = cmdExport(ctx, targetOBJ, args)
	case "gltf":
		err = cmdExport(ctx, targetGLTF, args)
	case "info":
		err = cmdInfo(ctx, args)
	case "inspect":
		err = cmdInspect(ctx, args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`wmoexport - World Map Object exporter

Usage:
  wmoexport [global options] <command> [options] <asset>...

An asset is a numeric file data ID or a listfile name.

Commands:
  obj <asset>...      Export as OBJ with textures, materials and doodad placements
  gltf <asset>...     Export as glTF
  info <asset>        Show counts, groups and doodad sets
  inspect <asset>     Dump the decoded structure

Export options:
  -groups 0,2-4       Export only these groups
  -sets 0             Place only these doodad sets
  -o path             Output file (single asset only)
  -fresh              Do not share exported sub-models between assets

Global options:
  -config path        Config file (default ./config.yaml)
  -out dir            Shared export directory
  -listfile path      Listfile of "id;name" lines
  -overwrite          Overwrite existing files
  -meta               Write the structured dump
  -uv2                Export secondary UV layers
  -debug              Enable debug logging

Examples:
  wmoexport -out ./export obj world/wmo/stormwind/keep.wmo
  wmoexport obj -groups 0,1 -sets 0 108203
  wmoexport -listfile listfile.csv inspect 108203`)
}
