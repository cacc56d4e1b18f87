package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"github.com/Faultbox/wmoexport/internal/export"
	"github.com/Faultbox/wmoexport/internal/logger"
	"github.com/Faultbox/wmoexport/pkg/listfile"
)

type target int

const (
	targetOBJ target = iota
	targetGLTF
)

func (t target) extension() string {
	if t == targetGLTF {
		return ".gltf"
	}
	return ".obj"
}

func cmdExport(ctx context.Context, t target, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	groups := fs.String("groups", "", "Comma-separated group indices or ranges (default all)")
	sets := fs.String("sets", "", "Comma-separated doodad set indices or ranges (default all)")
	out := fs.String("o", "", "Output file (single asset only)")
	fresh := fs.Bool("fresh", false, "Use a new sub-model session for every asset")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: wmoexport obj|gltf [options] <asset> [asset...]")
	}
	if *out != "" && fs.NArg() > 1 {
		return errors.New("-o requires a single asset")
	}

	groupMask, err := export.ParseMask(*groups)
	if err != nil {
		return fmt.Errorf("parsing -groups: %w", err)
	}
	setMask, err := export.ParseMask(*sets)
	if err != nil {
		return fmt.Errorf("parsing -sets: %w", err)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	opts := e.cfg.ExportOptions()
	deps := export.Deps{
		Storage:   e.storage,
		Lookup:    e.names,
		Textures:  e.textures,
		SubModels: &rawSubModels{overwrite: opts.OverwriteFiles},
		Progress:  &logProgress{},
	}

	// One session for the whole invocation: a sub-model placed by several
	// assets is exported once.
	session := export.NewSession()

	failed := 0
	for _, arg := range fs.Args() {
		if ctx.Err() != nil {
			break
		}
		if *fresh {
			session.Clear()
		}

		a, err := resolveAsset(e.names, arg)
		if err != nil {
			logger.Error("skipping asset", zap.String("asset", arg), zap.Error(err))
			failed++
			continue
		}

		path := *out
		if path == "" {
			path = outputPath(opts.ExportDir, e.names, a, t)
		}

		manifest, err := exportAsset(ctx, e, a, t, path, deps, opts, session, groupMask, setMask)
		if err != nil {
			logger.Error("export failed", zap.Stringer("asset", a), zap.Error(err))
			failed++
			continue
		}

		if err := reportManifest(ctx, os.Stdout, a, manifest); err != nil {
			break
		}
	}

	logger.Debug("sub-model session", zap.Int("exported", session.Len()))
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("export interrupted: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d assets failed", failed, fs.NArg())
	}
	return nil
}

// reportManifest prints the artifacts of one export. A cancelled export
// still prints what it produced, then reports the cancellation.
func reportManifest(ctx context.Context, w io.Writer, a asset, manifest *export.Manifest) error {
	for _, entry := range manifest.Entries {
		fmt.Fprintf(w, "%-16s %10d  %s\n", entry.Kind, entry.FileDataID, entry.Path)
	}

	if err := ctx.Err(); err != nil {
		logger.Warn("export cancelled", zap.Stringer("asset", a), zap.Int("artifacts", manifest.Len()))
		return err
	}
	logger.Info("export complete",
		zap.Stringer("asset", a),
		zap.Int("images", len(manifest.ByKind(export.KindImage))),
		zap.Int("artifacts", manifest.Len()))
	return nil
}

func exportAsset(ctx context.Context, e *env, a asset, t target, out string, deps export.Deps, opts export.Options, session *export.Session, groups, sets export.Mask) (*export.Manifest, error) {
	loader, err := e.open(ctx, a)
	if err != nil {
		return nil, err
	}

	exporter := export.NewExporter(loader, deps, opts, session)
	exporter.SetGroupMask(groups)
	exporter.SetDoodadSetMask(sets)

	if t == targetGLTF {
		return exporter.ExportGLTF(ctx, out)
	}
	return exporter.ExportOBJ(ctx, out)
}

// outputPath places an asset's export under the export directory, mirroring
// its listfile name when it has one.
func outputPath(exportDir string, names *listfile.Listfile, a asset, t target) string {
	name := names.FormatUnknown(a.fileDataID, t.extension())
	if a.fileName != "" {
		ext := filepath.Ext(a.fileName)
		name = a.fileName[:len(a.fileName)-len(ext)] + t.extension()
	}
	return filepath.Join(exportDir, filepath.FromSlash(name))
}

func cmdInfo(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: wmoexport info <asset>")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := resolveAsset(e.names, args[0])
	if err != nil {
		return err
	}
	loader, err := e.open(ctx, a)
	if err != nil {
		return err
	}
	root, err := loader.Load(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Asset:      %s (%d)\n", a, a.fileDataID)
	fmt.Printf("Version:    %d\n", root.Version)
	fmt.Printf("Materials:  %d\n", len(root.Materials))
	fmt.Printf("Groups:     %d\n", root.GroupCount)
	fmt.Printf("Portals:    %d\n", root.PortalCount)
	fmt.Printf("Doodads:    %d in %d sets\n", len(root.Doodads), len(root.DoodadSets))
	fmt.Printf("Textures:   %s\n", root.TextureAddressing)
	fmt.Printf("Doodad refs: %s\n", root.DoodadAddressing)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tNAME\tVERTICES\tBATCHES")
	for i := 0; i < int(root.GroupCount); i++ {
		group, err := loader.Group(ctx, i)
		if err != nil {
			fmt.Fprintf(w, "%d\t(%v)\t\t\n", i, err)
			continue
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", i, root.GroupName(group), group.VertexCount(), len(group.RenderBatches))
	}
	w.Flush()
	fmt.Println()

	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SET\tNAME\tFIRST\tCOUNT")
	for i, set := range root.DoodadSets {
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\n", i, set.Name, set.FirstInstanceIndex, set.DoodadCount)
	}
	return w.Flush()
}

func cmdInspect(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	depth := fs.Int("depth", 3, "Maximum nesting depth")
	group := fs.Int("group", -1, "Dump this group instead of the root")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return errors.New("usage: wmoexport inspect [-depth n] [-group i] <asset>")
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	a, err := resolveAsset(e.names, fs.Arg(0))
	if err != nil {
		return err
	}
	loader, err := e.open(ctx, a)
	if err != nil {
		return err
	}

	dumper := spew.ConfigState{
		Indent:                  "  ",
		MaxDepth:                *depth,
		DisableCapacities:       true,
		DisablePointerAddresses: true,
		SortKeys:                true,
	}

	if *group >= 0 {
		g, err := loader.Group(ctx, *group)
		if err != nil {
			return err
		}
		dumper.Fdump(os.Stdout, g)
		return nil
	}

	root, err := loader.Load(ctx)
	if err != nil {
		return err
	}
	dumper.Fdump(os.Stdout, root)
	return nil
}
