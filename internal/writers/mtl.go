package writers

import (
	"bufio"
	"fmt"
)

type mtlMaterial struct {
	name string
	file string
}

// MTLWriter writes a Wavefront material library.
type MTLWriter struct {
	out       string
	materials []mtlMaterial
	seen      map[string]bool
}

// NewMTLWriter creates a writer for the given output path.
func NewMTLWriter(out string) *MTLWriter {
	return &MTLWriter{out: out, seen: make(map[string]bool)}
}

// Path returns the output path.
func (w *MTLWriter) Path() string { return w.out }

// AddMaterial adds a material with a diffuse texture file. Repeated names are ignored.
func (w *MTLWriter) AddMaterial(name, file string) {
	if w.seen[name] {
		return
	}
	w.seen[name] = true
	w.materials = append(w.materials, mtlMaterial{name: name, file: file})
}

// IsEmpty reports whether no material was added.
func (w *MTLWriter) IsEmpty() bool { return len(w.materials) == 0 }

// Write writes the file. It reports whether the file was written.
func (w *MTLWriter) Write(overwrite bool) (bool, error) {
	return writeFile(w.out, overwrite, func(out *bufio.Writer) error {
		for _, m := range w.materials {
			fmt.Fprintf(out, "newmtl %s\n", m.name)
			fmt.Fprintf(out, "map_Kd %s\n", m.file)
		}
		return nil
	})
}
