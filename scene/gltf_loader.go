package scene

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/internal/logger"
	"deferred-renderer/math"
)

// LoadGLTF reads a .gltf or .glb file and uploads every mesh primitive
// reachable from the default scene as a Model.
func LoadGLTF(ctx gpu.Context, path string) ([]*Model, error) {
	instances, err := ReadGLTF(path)
	if err != nil {
		return nil, err
	}
	return upload(ctx, path, instances)
}

// ReadGLTF parses path into CPU-side instances with world transforms.
// Images that fail to load are skipped with a warning and the material
// falls back to its base color.
func ReadGLTF(path string) ([]Instance, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	log := logger.Log.With(zap.String("gltf", path))

	// ── Textures ──────────────────────────────────────────────────────────────
	textures := make([]*image.RGBA, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || *gt.Source >= len(doc.Images) {
			continue
		}
		img, err := loadGLTFImage(doc, doc.Images[*gt.Source], filepath.Dir(path))
		if err != nil {
			log.Warn("gltf image skipped", zap.Int("image", *gt.Source), zap.Error(err))
			continue
		}
		textures[i] = img
	}

	// ── Materials ─────────────────────────────────────────────────────────────
	materials := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			albedo := core.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
			mat = MaterialFromMetallicRoughness(gm.Name, albedo,
				float32(pbr.MetallicFactorOrDefault()), float32(pbr.RoughnessFactorOrDefault()))
			if ti := pbr.BaseColorTexture; ti != nil && ti.Index < len(textures) {
				mat.AlbedoTexture = textures[ti.Index]
			}
		}
		mat.Name = gm.Name
		materials[i] = mat
	}

	// ── Meshes ────────────────────────────────────────────────────────────────
	type primitive struct {
		mesh     *Mesh
		material *Material
	}
	meshes := make([][]primitive, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				log.Warn("gltf primitive skipped: not triangles", zap.Int("mesh", mi), zap.Int("primitive", pi))
				continue
			}
			m, err := readGLTFPrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				return nil, fmt.Errorf("gltf %q mesh %d primitive %d: %w", path, mi, pi, err)
			}
			mat := DefaultMaterial()
			if prim.Material != nil && *prim.Material < len(materials) {
				mat = materials[*prim.Material]
			}
			meshes[mi] = append(meshes[mi], primitive{m, mat})
		}
	}

	// ── Nodes ─────────────────────────────────────────────────────────────────
	var out []Instance
	visited := make([]bool, len(doc.Nodes))
	var walk func(idx int, parent math.Mat4) error
	walk = func(idx int, parent math.Mat4) error {
		if idx < 0 || idx >= len(doc.Nodes) {
			return fmt.Errorf("node index %d out of range", idx)
		}
		if visited[idx] {
			return fmt.Errorf("node %d reached twice", idx)
		}
		visited[idx] = true
		node := doc.Nodes[idx]
		world := nodeLocal(node).Mul(parent)
		if node.Mesh != nil && *node.Mesh < len(meshes) {
			for _, p := range meshes[*node.Mesh] {
				out = append(out, Instance{Mesh: p.mesh, Material: p.material, Transform: world})
			}
		}
		for _, c := range node.Children {
			if err := walk(c, world); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range rootNodes(doc) {
		if err := walk(root, math.Mat4Identity()); err != nil {
			return nil, fmt.Errorf("gltf %q: %w", path, err)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gltf %q: %w", path, errNoGeometry)
	}
	return out, nil
}

var errNoGeometry = errors.New("no triangle geometry")

// rootNodes returns the default scene's nodes, or every parentless node
// when the file has no default scene.
func rootNodes(doc *gltf.Document) []int {
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		return doc.Scenes[*doc.Scene].Nodes
	}
	if len(doc.Scenes) > 0 {
		return doc.Scenes[0].Nodes
	}
	hasParent := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(hasParent) {
				hasParent[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !hasParent[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

// nodeLocal composes T * R * S, or uses the node matrix when one is given.
// glTF matrices are column-major, which is the flat order of math.Mat4.
func nodeLocal(n *gltf.Node) math.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var g mgl32.Mat4
		for i, v := range m {
			g[i] = float32(v)
		}
		return math.Mat4FromMgl(g)
	}
	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	rot := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}.Normalize()
	local := mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(rot.Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
	return math.Mat4FromMgl(local)
}

func readGLTFPrimitive(doc *gltf.Document, meshName string, idx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, idx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", idx)
	}

	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, errors.New("no POSITION attribute")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	var normals [][3]float32
	if i, ok := prim.Attributes[gltf.NORMAL]; ok {
		if normals, err = modeler.ReadNormal(doc, doc.Accessors[i], nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	var uvs [][2]float32
	if i, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		if uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[i], nil); err != nil {
			return nil, fmt.Errorf("texture coordinates: %w", err)
		}
	}
	var indices []uint32
	if prim.Indices != nil {
		if indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil); err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
	}

	vertices := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: math.Vec3{X: p[0], Y: p[1], Z: p[2]},
			Normal:   math.Vec3Up,
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = math.Vec3{X: normals[i][0], Y: normals[i][1], Z: normals[i][2]}
		}
		if i < len(uvs) {
			v.UV = math.Vec2{X: uvs[i][0], Y: uvs[i][1]}
		}
		vertices[i] = v
	}
	if normals == nil {
		flatNormals(vertices, indices)
	}
	return NewMesh(name, vertices, indices), nil
}

// flatNormals gives each vertex the normal of the last triangle using it.
func flatNormals(vertices []core.Vertex, indices []uint32) {
	tri := func(a, b, c uint32) {
		if int(a) >= len(vertices) || int(b) >= len(vertices) || int(c) >= len(vertices) {
			return
		}
		pa, pb, pc := vertices[a].Position, vertices[b].Position, vertices[c].Position
		n := pb.Sub(pa).Cross(pc.Sub(pa)).Normalize()
		vertices[a].Normal, vertices[b].Normal, vertices[c].Normal = n, n, n
	}
	if len(indices) > 0 {
		for i := 0; i+2 < len(indices); i += 3 {
			tri(indices[i], indices[i+1], indices[i+2])
		}
		return
	}
	for i := 0; i+2 < len(vertices); i += 3 {
		tri(uint32(i), uint32(i+1), uint32(i+2))
	}
}

func loadGLTFImage(doc *gltf.Document, img *gltf.Image, dir string) (*image.RGBA, error) {
	switch {
	case img.BufferView != nil:
		raw, err := modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		if err != nil {
			return nil, err
		}
		return decodeTextureBytes(raw)
	case img.IsEmbeddedResource():
		raw, err := img.MarshalData()
		if err != nil {
			return nil, err
		}
		return decodeTextureBytes(raw)
	case img.URI != "":
		return LoadTexture(filepath.Join(dir, img.URI))
	}
	return nil, errors.New("image has no data")
}
