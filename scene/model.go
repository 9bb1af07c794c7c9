package scene

import (
	"fmt"

	"deferred-renderer/gpu"
	"deferred-renderer/math"
)

// GeometryProgram is the program models draw into the geometry buffer with.
const GeometryProgram = "geometry"

// Model is a mesh uploaded to the GPU together with its material and world
// transform. It writes albedo, position, normal and specular attributes
// when rendered inside a geometry pass.
type Model struct {
	Name      string
	Mesh      *Mesh
	Material  *Material
	Transform math.Mat4

	ctx     gpu.Context
	program gpu.Program
	gpuMesh gpu.Mesh
	albedo  gpu.Texture
}

// NewModel uploads mesh and the material's albedo texture. A nil material
// uses DefaultMaterial.
func NewModel(ctx gpu.Context, mesh *Mesh, material *Material) (*Model, error) {
	if mesh == nil {
		return nil, fmt.Errorf("%w: nil mesh", gpu.ErrResourceAllocation)
	}
	if material == nil {
		material = DefaultMaterial()
	}
	program, err := ctx.NewProgram(GeometryProgram)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", mesh.Name, err)
	}
	gm, err := ctx.NewMesh(mesh.Data())
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", mesh.Name, err)
	}
	m := &Model{
		Name:      mesh.Name,
		Mesh:      mesh,
		Material:  material,
		Transform: math.Mat4Identity(),
		ctx:       ctx,
		program:   program,
		gpuMesh:   gm,
	}
	if material.AlbedoTexture != nil {
		tex, err := ctx.NewTexture(material.AlbedoTexture)
		if err != nil {
			gm.Delete()
			return nil, fmt.Errorf("model %q albedo: %w", mesh.Name, err)
		}
		m.albedo = tex
	}
	return m, nil
}

// Bounds is the world-space box of the model.
func (m *Model) Bounds() AABB {
	return m.Mesh.Bounds.Transform(m.Transform)
}

// Render draws the model with cam's view-projection. The caller sets the
// geometry state and binds the target.
func (m *Model) Render(cam *Camera) error {
	p := m.program
	mat := m.Material
	if err := p.SetMat4("model", m.Transform); err != nil {
		return err
	}
	if err := p.SetMat4("viewProjection", cam.ViewProjection()); err != nil {
		return err
	}
	if err := p.SetVec3("materialColor", mat.Albedo.RGB()); err != nil {
		return err
	}
	if err := p.SetFloat("specularIntensity", mat.SpecularIntensity); err != nil {
		return err
	}
	if err := p.SetFloat("specularPower", mat.SpecularPower); err != nil {
		return err
	}
	if m.albedo != nil {
		if err := p.UseTexture("albedoMap", 0, m.albedo); err != nil {
			return err
		}
		if err := p.SetInt("hasTexture", 1); err != nil {
			return err
		}
	} else if err := p.SetInt("hasTexture", 0); err != nil {
		return err
	}
	if err := p.Draw(m.gpuMesh); err != nil {
		return fmt.Errorf("model %q: %w", m.Name, err)
	}
	return nil
}

// Delete frees the GPU mesh and texture. The shared program stays with the
// context.
func (m *Model) Delete() {
	if m.gpuMesh != nil {
		m.gpuMesh.Delete()
		m.gpuMesh = nil
	}
	if m.albedo != nil {
		m.ctx.DeleteTexture(m.albedo)
		m.albedo = nil
	}
}
