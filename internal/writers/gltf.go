package writers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

type gltfMesh struct {
	name      string
	triangles []uint32
	material  string
}

// GLTFTexture binds an exported image file to a material name.
type GLTFTexture struct {
	MaterialName string
	Path         string // relative to the glTF file
}

// GLTFWriter writes a glTF 2.0 scene with an external binary buffer. Each
// mesh becomes one node; images are referenced by relative URI.
type GLTFWriter struct {
	out      string
	name     string
	verts    []float32
	normals  []float32
	uvs      [][]float32
	meshes   []gltfMesh
	textures []GLTFTexture
}

// NewGLTFWriter creates a writer for the given output path.
func NewGLTFWriter(out string) *GLTFWriter {
	return &GLTFWriter{out: out}
}

// Path returns the output path.
func (w *GLTFWriter) Path() string { return w.out }

// BufferPath returns the path of the binary buffer written alongside.
func (w *GLTFWriter) BufferPath() string {
	return strings.TrimSuffix(w.out, filepath.Ext(w.out)) + ".bin"
}

// SetName sets the scene name.
func (w *GLTFWriter) SetName(name string) { w.name = name }

// SetVertArray sets the vertex positions, 3 floats per vertex.
func (w *GLTFWriter) SetVertArray(verts []float32) { w.verts = verts }

// SetNormalArray sets the vertex normals, 3 floats per vertex.
func (w *GLTFWriter) SetNormalArray(normals []float32) { w.normals = normals }

// AddUVArray adds a UV layer, 2 floats per vertex. Layers become TEXCOORD_n.
func (w *GLTFWriter) AddUVArray(uv []float32) { w.uvs = append(w.uvs, uv) }

// AddMesh adds a named triangle list bound to a material.
func (w *GLTFWriter) AddMesh(name string, triangles []uint32, material string) {
	w.meshes = append(w.meshes, gltfMesh{name: name, triangles: triangles, material: material})
}

// SetTextures sets the material to image bindings.
func (w *GLTFWriter) SetTextures(textures []GLTFTexture) { w.textures = textures }

// Write writes the file. It reports whether the file was written.
func (w *GLTFWriter) Write(overwrite bool) (bool, error) {
	if !overwrite && FileExists(w.out) {
		return false, nil
	}

	doc := w.build()
	if err := gltf.Save(doc, w.out); err != nil {
		return false, errors.Wrapf(err, "saving gltf %q", w.out)
	}
	return true, nil
}

func (w *GLTFWriter) build() *gltf.Document {
	doc := gltf.NewDocument()
	doc.Scenes[0].Name = w.name

	count := len(w.verts) / 3
	attributes := make(map[string]uint32)

	if count > 0 {
		positions := make([][3]float32, count)
		for i := range positions {
			positions[i] = [3]float32{w.verts[i*3], w.verts[i*3+1], w.verts[i*3+2]}
		}
		attributes["POSITION"] = modeler.WritePosition(doc, positions)
	}

	if len(w.normals) == len(w.verts) && count > 0 {
		normals := make([][3]float32, count)
		for i := range normals {
			normals[i] = [3]float32{w.normals[i*3], w.normals[i*3+1], w.normals[i*3+2]}
		}
		attributes["NORMAL"] = modeler.WriteNormal(doc, normals)
	}

	for layer, uv := range w.uvs {
		if count == 0 {
			break
		}
		coords := make([][2]float32, count)
		for i := range coords {
			if i*2+1 < len(uv) {
				coords[i] = [2]float32{uv[i*2], uv[i*2+1]}
			}
		}
		attributes[fmt.Sprintf("TEXCOORD_%d", layer)] = modeler.WriteTextureCoord(doc, coords)
	}

	materials := w.buildMaterials(doc)

	for _, mesh := range w.meshes {
		if len(mesh.triangles) == 0 {
			continue
		}
		indices := modeler.WriteIndices(doc, mesh.triangles)
		primitive := &gltf.Primitive{
			Indices:    gltf.Index(indices),
			Attributes: attributes,
		}
		if index, ok := materials[mesh.material]; ok {
			primitive.Material = gltf.Index(index)
		}

		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       mesh.name,
			Primitives: []*gltf.Primitive{primitive},
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: mesh.name,
			Mesh: gltf.Index(uint32(len(doc.Meshes) - 1)),
		})
	}

	if len(doc.Buffers) > 0 {
		doc.Buffers[0].URI = filepath.Base(w.BufferPath())
	}
	return doc
}

// buildMaterials adds one sampler, and an image, texture and material per
// bound texture, returning material indices by name.
func (w *GLTFWriter) buildMaterials(doc *gltf.Document) map[string]uint32 {
	materials := make(map[string]uint32)
	if len(w.textures) == 0 {
		return materials
	}

	doc.Samplers = append(doc.Samplers, &gltf.Sampler{
		MinFilter: gltf.MinLinear,
		MagFilter: gltf.MagLinear,
		WrapS:     gltf.WrapRepeat,
		WrapT:     gltf.WrapRepeat,
	})

	for _, tex := range w.textures {
		if _, ok := materials[tex.MaterialName]; ok {
			continue
		}

		doc.Images = append(doc.Images, &gltf.Image{
			Name: tex.MaterialName,
			URI:  filepath.ToSlash(tex.Path),
		})
		doc.Textures = append(doc.Textures, &gltf.Texture{
			Name:    tex.MaterialName,
			Sampler: gltf.Index(0),
			Source:  gltf.Index(uint32(len(doc.Images) - 1)),
		})

		materials[tex.MaterialName] = uint32(len(doc.Materials))
		doc.Materials = append(doc.Materials, &gltf.Material{
			Name:        tex.MaterialName,
			DoubleSided: true,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorTexture: &gltf.TextureInfo{
					Index: uint32(len(doc.Textures) - 1),
				},
			},
		})
	}
	return materials
}
