package writers

import (
	"bufio"
	"fmt"
	"strconv"
)

type objMesh struct {
	name      string
	triangles []uint32
	material  string
}

// OBJWriter writes Wavefront OBJ geometry. Meshes index into one shared
// vertex pool; only the first UV layer is written since OBJ has a single
// texture coordinate channel.
type OBJWriter struct {
	out     string
	name    string
	verts   []float32
	normals []float32
	uvs     [][]float32
	meshes  []objMesh
	mtllib  string
}

// NewOBJWriter creates a writer for the given output path.
func NewOBJWriter(out string) *OBJWriter {
	return &OBJWriter{out: out}
}

// Path returns the output path.
func (w *OBJWriter) Path() string { return w.out }

// SetName sets the object name.
func (w *OBJWriter) SetName(name string) { w.name = name }

// SetVertArray sets the vertex positions, 3 floats per vertex.
func (w *OBJWriter) SetVertArray(verts []float32) { w.verts = verts }

// SetNormalArray sets the vertex normals, 3 floats per vertex.
func (w *OBJWriter) SetNormalArray(normals []float32) { w.normals = normals }

// AddUVArray adds a UV layer, 2 floats per vertex.
func (w *OBJWriter) AddUVArray(uv []float32) { w.uvs = append(w.uvs, uv) }

// AddMesh adds a named triangle list bound to a material.
func (w *OBJWriter) AddMesh(name string, triangles []uint32, material string) {
	w.meshes = append(w.meshes, objMesh{name: name, triangles: triangles, material: material})
}

// SetMaterialLibrary references an MTL file by name.
func (w *OBJWriter) SetMaterialLibrary(name string) { w.mtllib = name }

// Write writes the file. It reports whether the file was written.
func (w *OBJWriter) Write(overwrite bool) (bool, error) {
	return writeFile(w.out, overwrite, w.encode)
}

func (w *OBJWriter) encode(out *bufio.Writer) error {
	fmt.Fprintln(out, "# Exported by wmoexport")
	if w.mtllib != "" {
		fmt.Fprintf(out, "mtllib %s\n", w.mtllib)
	}
	if w.name != "" {
		fmt.Fprintf(out, "o %s\n", w.name)
	}

	for i := 0; i+2 < len(w.verts); i += 3 {
		fmt.Fprintf(out, "v %s %s %s\n", ftoa(w.verts[i]), ftoa(w.verts[i+1]), ftoa(w.verts[i+2]))
	}

	hasUV := len(w.uvs) > 0 && len(w.uvs[0]) > 0
	if hasUV {
		uv := w.uvs[0]
		for i := 0; i+1 < len(uv); i += 2 {
			fmt.Fprintf(out, "vt %s %s\n", ftoa(uv[i]), ftoa(uv[i+1]))
		}
	}

	hasNormals := len(w.normals) > 0
	for i := 0; i+2 < len(w.normals); i += 3 {
		fmt.Fprintf(out, "vn %s %s %s\n", ftoa(w.normals[i]), ftoa(w.normals[i+1]), ftoa(w.normals[i+2]))
	}

	for _, mesh := range w.meshes {
		fmt.Fprintf(out, "g %s\n", mesh.name)
		if mesh.material != "" {
			fmt.Fprintf(out, "usemtl %s\n", mesh.material)
		}
		for i := 0; i+2 < len(mesh.triangles); i += 3 {
			out.WriteString("f")
			for _, idx := range mesh.triangles[i : i+3] {
				out.WriteByte(' ')
				out.WriteString(faceVertex(idx+1, hasUV, hasNormals))
			}
			out.WriteByte('\n')
		}
	}
	return nil
}

func faceVertex(i uint32, hasUV, hasNormals bool) string {
	s := strconv.FormatUint(uint64(i), 10)
	switch {
	case hasUV && hasNormals:
		return s + "/" + s + "/" + s
	case hasNormals:
		return s + "//" + s
	case hasUV:
		return s + "/" + s
	}
	return s
}

func ftoa(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}
