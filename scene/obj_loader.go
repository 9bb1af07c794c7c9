package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"deferred-renderer/core"
	"deferred-renderer/gpu"
	"deferred-renderer/internal/logger"
	"deferred-renderer/math"
)

// LoadOBJ reads a Wavefront .obj file, with its mtllib materials, and
// uploads one Model per object or group.
func LoadOBJ(ctx gpu.Context, path string) ([]*Model, error) {
	instances, err := ReadOBJ(path)
	if err != nil {
		return nil, err
	}
	return upload(ctx, path, instances)
}

// ReadOBJ parses path into CPU-side instances with identity transforms.
// Polygons are fan-triangulated. Missing normals are generated by averaging
// the faces around each vertex.
func ReadOBJ(path string) ([]Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("obj open %q: %w", path, err)
	}
	defer f.Close()

	instances, err := parseOBJ(f, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("obj %q: %w", path, err)
	}
	return instances, nil
}

// objCorner references one face corner; -1 marks an absent attribute.
type objCorner struct{ v, vt, vn int }

type objGroup struct {
	name     string
	material string
	corners  []objCorner // three per triangle
}

type objReader struct {
	dir       string
	positions []math.Vec3
	normals   []math.Vec3
	uvs       []math.Vec2
	materials map[string]*Material
	groups    []*objGroup
	cur       *objGroup
	log       *zap.Logger
}

func parseOBJ(r io.Reader, dir string) ([]Instance, error) {
	o := &objReader{
		dir:       dir,
		materials: make(map[string]*Material),
		log:       logger.Log.With(zap.String("obj", dir)),
	}
	o.cur = &objGroup{name: "default"}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := o.directive(fields); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	o.flush()
	if len(o.groups) == 0 {
		return nil, errNoGeometry
	}

	out := make([]Instance, 0, len(o.groups))
	for _, g := range o.groups {
		mat, ok := o.materials[g.material]
		if !ok {
			mat = DefaultMaterial()
		}
		out = append(out, Instance{Mesh: o.mesh(g), Material: mat, Transform: math.Mat4Identity()})
	}
	return out, nil
}

func (o *objReader) directive(fields []string) error {
	switch fields[0] {
	case "v", "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p := math.Vec3{X: v[0], Y: v[1], Z: v[2]}
		if fields[0] == "v" {
			o.positions = append(o.positions, p)
		} else {
			o.normals = append(o.normals, p)
		}
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		o.uvs = append(o.uvs, math.Vec2{X: v[0], Y: v[1]})
	case "o", "g":
		o.flush()
		name := "default"
		if len(fields) > 1 {
			name = fields[1]
		}
		o.cur = &objGroup{name: name, material: o.cur.material}
	case "usemtl":
		if len(fields) > 1 {
			// A material switch inside a group starts a new mesh.
			if len(o.cur.corners) > 0 {
				o.flush()
				o.cur = &objGroup{name: o.cur.name}
			}
			o.cur.material = fields[1]
		}
	case "mtllib":
		for _, name := range fields[1:] {
			mats, err := readMTL(filepath.Join(o.dir, name), o.dir)
			if err != nil {
				o.log.Warn("mtllib skipped", zap.String("file", name), zap.Error(err))
				continue
			}
			for k, m := range mats {
				o.materials[k] = m
			}
		}
	case "f":
		if len(fields) < 4 {
			return fmt.Errorf("face with %d vertices", len(fields)-1)
		}
		corners := make([]objCorner, 0, len(fields)-1)
		for _, tok := range fields[1:] {
			c, err := o.corner(tok)
			if err != nil {
				return err
			}
			corners = append(corners, c)
		}
		for i := 1; i+1 < len(corners); i++ {
			o.cur.corners = append(o.cur.corners, corners[0], corners[i], corners[i+1])
		}
	}
	return nil
}

func (o *objReader) flush() {
	if o.cur != nil && len(o.cur.corners) > 0 {
		o.groups = append(o.groups, o.cur)
	}
}

// corner parses "v", "v/vt", "v//vn" or "v/vt/vn". Indices are 1-based;
// negative indices count back from the latest element.
func (o *objReader) corner(tok string) (objCorner, error) {
	c := objCorner{-1, -1, -1}
	parts := strings.Split(tok, "/")
	counts := []int{len(o.positions), len(o.uvs), len(o.normals)}
	dst := []*int{&c.v, &c.vt, &c.vn}
	for i, s := range parts {
		if i >= len(dst) || s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return c, fmt.Errorf("face index %q: %w", tok, err)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += counts[i]
		}
		if n < 0 || n >= counts[i] {
			return c, fmt.Errorf("face index %q out of range", tok)
		}
		*dst[i] = n
	}
	if c.v < 0 {
		return c, fmt.Errorf("face corner %q has no position", tok)
	}
	return c, nil
}

// mesh deduplicates corners into an indexed Mesh.
func (o *objReader) mesh(g *objGroup) *Mesh {
	seen := make(map[objCorner]uint32)
	var vertices []core.Vertex
	indices := make([]uint32, 0, len(g.corners))
	missingNormals := false
	for _, c := range g.corners {
		idx, ok := seen[c]
		if !ok {
			v := core.Vertex{Position: o.positions[c.v], Color: core.ColorWhite}
			if c.vn >= 0 {
				v.Normal = o.normals[c.vn]
			} else {
				missingNormals = true
			}
			if c.vt >= 0 {
				v.UV = o.uvs[c.vt]
			}
			idx = uint32(len(vertices))
			vertices = append(vertices, v)
			seen[c] = idx
		}
		indices = append(indices, idx)
	}
	if missingNormals {
		smoothNormals(vertices, indices)
	}
	return NewMesh(g.name, vertices, indices)
}

// smoothNormals sets each vertex normal to the area-weighted average of the
// faces sharing it.
func smoothNormals(vertices []core.Vertex, indices []uint32) {
	sum := make([]math.Vec3, len(vertices))
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		pa := vertices[a].Position
		n := vertices[b].Position.Sub(pa).Cross(vertices[c].Position.Sub(pa))
		sum[a], sum[b], sum[c] = sum[a].Add(n), sum[b].Add(n), sum[c].Add(n)
	}
	for i := range vertices {
		if sum[i].Length() > 0 {
			vertices[i].Normal = sum[i].Normalize()
		}
	}
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d numbers, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// ── MTL ───────────────────────────────────────────────────────────────────────

// readMTL reads the diffuse color (Kd), specular color (Ks), exponent (Ns)
// and diffuse map (map_Kd) of every material in path.
func readMTL(path, dir string) (map[string]*Material, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	mats := make(map[string]*Material)
	var cur *Material
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			cur = DefaultMaterial()
			cur.Name = fields[1]
			mats[cur.Name] = cur
			continue
		}
		if cur == nil {
			continue
		}
		switch fields[0] {
		case "Kd":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				cur.Albedo = core.Color{R: v[0], G: v[1], B: v[2], A: 1}
			}
		case "Ks":
			if v, err := parseFloats(fields[1:], 3); err == nil {
				cur.SpecularIntensity = math.Clamp((v[0]+v[1]+v[2])/3, 0, 1)
			}
		case "Ns":
			if v, err := parseFloats(fields[1:], 1); err == nil {
				cur.SpecularPower = max(v[0], 1)
			}
		case "map_Kd":
			img, err := LoadTexture(filepath.Join(dir, fields[len(fields)-1]))
			if err != nil {
				logger.Log.Warn("mtl texture skipped", zap.String("material", cur.Name), zap.Error(err))
				continue
			}
			cur.AlbedoTexture = img
		}
	}
	return mats, scanner.Err()
}
