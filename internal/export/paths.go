package export

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"
)

// replaceExt swaps the extension of p, e.g. ("a/b.m2", ".obj") -> "a/b.obj".
func replaceExt(p, ext string) string {
	return strings.TrimSuffix(p, filepath.Ext(p)) + ext
}

// exportPath places a file name under the shared export directory.
func (e *Exporter) exportPath(name string) string {
	return filepath.Join(e.opts.ExportDir, filepath.FromSlash(toPosix(name)))
}

// relativeTo returns target relative to dir, or target itself when no
// relative path exists.
func relativeTo(dir, target string) string {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return target
	}
	return rel
}

func toPosix(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// outputPath formats a relative path for writing into an output file.
func (e *Exporter) outputPath(p string) string {
	if e.opts.PosixPaths {
		return toPosix(p)
	}
	return p
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// baseName returns the last element of a game file name, which may use
// either separator.
func baseName(name string) string {
	return path.Base(toPosix(name))
}
