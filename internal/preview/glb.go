// Package preview renders cube state for humans: a binary glTF model of the
// lit voxels and PNG plots of single planes or whole recordings.
package preview

import (
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/banshee-data/ledcube/internal/cube"
)

// VoxelSize is the edge of each rendered LED box; the remainder of the unit
// cell is left as a gap so neighbouring voxels stay distinguishable.
const VoxelSize = 0.8

// faces of a unit box: outward normal plus four corners, counter-clockwise
// when seen from outside.
var faces = [6]struct {
	normal  [3]float32
	corners [4][3]float32
}{
	{[3]float32{1, 0, 0}, [4][3]float32{{1, 0, 0}, {1, 1, 0}, {1, 1, 1}, {1, 0, 1}}},
	{[3]float32{-1, 0, 0}, [4][3]float32{{0, 0, 1}, {0, 1, 1}, {0, 1, 0}, {0, 0, 0}}},
	{[3]float32{0, 1, 0}, [4][3]float32{{0, 1, 1}, {1, 1, 1}, {1, 1, 0}, {0, 1, 0}}},
	{[3]float32{0, -1, 0}, [4][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1}}},
	{[3]float32{0, 0, 1}, [4][3]float32{{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1}}},
	{[3]float32{0, 0, -1}, [4][3]float32{{0, 1, 0}, {1, 1, 0}, {1, 0, 0}, {0, 0, 0}}},
}

const (
	verticesPerVoxel = 6 * 4
	indicesPerVoxel  = 6 * 6
)

// Document builds a glTF document with one box per lit voxel. glTF is
// Y-up, so the cube's z (height) maps to Y and its y to Z.
func Document(g *cube.Grid) *gltf.Document {
	doc := gltf.NewDocument()
	doc.Asset.Generator = "ledcube preview"

	lit := g.Lit()
	if len(lit) == 0 {
		return doc
	}

	positions := make([][3]float32, 0, len(lit)*verticesPerVoxel)
	normals := make([][3]float32, 0, len(lit)*verticesPerVoxel)
	indices := make([]uint32, 0, len(lit)*indicesPerVoxel)

	const inset = (1 - VoxelSize) / 2
	for _, p := range lit {
		origin := [3]float32{float32(p.X) + inset, float32(p.Z) + inset, float32(p.Y) + inset}
		for _, f := range faces {
			base := uint32(len(positions))
			for _, c := range f.corners {
				positions = append(positions, [3]float32{
					origin[0] + c[0]*VoxelSize,
					origin[1] + c[1]*VoxelSize,
					origin[2] + c[2]*VoxelSize,
				})
				normals = append(normals, f.normal)
			}
			indices = append(indices, base, base+1, base+2, base, base+2, base+3)
		}
	}

	posAccessor := modeler.WritePosition(doc, positions)
	normalAccessor := modeler.WriteNormal(doc, normals)
	indicesAccessor := modeler.WriteIndices(doc, indices)
	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION: uint32(posAccessor),
			gltf.NORMAL:   uint32(normalAccessor),
		},
		Indices:  gltf.Index(uint32(indicesAccessor)),
		Material: gltf.Index(0),
	}

	// Warm LED amber, slightly emissive so it reads as lit.
	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{1, 0.55, 0.1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(0.6),
	}
	doc.Materials = []*gltf.Material{{
		Name:                 "LED",
		PBRMetallicRoughness: pbr,
		EmissiveFactor:       [3]float32{0.6, 0.3, 0.05},
		AlphaMode:            gltf.AlphaOpaque,
	}}
	doc.Meshes = []*gltf.Mesh{{Name: "Voxels", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: "Cube", Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, uint32(0))
	return doc
}

// WriteGLB encodes g as a binary glTF model onto w.
func WriteGLB(g *cube.Grid, w io.Writer) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(Document(g)); err != nil {
		return fmt.Errorf("failed to encode glb: %w", err)
	}
	return nil
}
