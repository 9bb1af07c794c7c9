package scene

import (
	"deferred-renderer/core"
)

// Scene groups the models drawn in a geometry pass with the lights applied
// in the following light pass.
type Scene struct {
	Models []*Model

	Ambient     *AmbientLight
	Directional []*DirectionalLight
	Points      []*PointLight
	Spots       []*SpotLight

	// Cull skips models whose bounds fall outside the camera frustum.
	Cull bool

	lastDrawn int
}

// New returns an empty scene with a dim white ambient light.
func New() *Scene {
	return &Scene{
		Ambient: NewAmbientLight(core.ColorWhite, 0.2),
		Cull:    true,
	}
}

func (s *Scene) Add(models ...*Model) {
	s.Models = append(s.Models, models...)
}

func (s *Scene) AddDirectional(l *DirectionalLight) { s.Directional = append(s.Directional, l) }
func (s *Scene) AddPoint(l *PointLight)             { s.Points = append(s.Points, l) }
func (s *Scene) AddSpot(l *SpotLight)               { s.Spots = append(s.Spots, l) }

// Render draws every visible model and stops at the first error.
func (s *Scene) Render(cam *Camera) error {
	s.lastDrawn = 0
	var frustum Frustum
	if s.Cull {
		frustum = FrustumFromViewProjection(cam.ViewProjection())
	}
	for _, m := range s.Models {
		if s.Cull && !frustum.Intersects(m.Bounds()) {
			continue
		}
		if err := m.Render(cam); err != nil {
			return err
		}
		s.lastDrawn++
	}
	return nil
}

// Drawn is the number of models the last Render submitted.
func (s *Scene) Drawn() int {
	return s.lastDrawn
}

// LightCount counts the directional, point and spot lights.
func (s *Scene) LightCount() int {
	return len(s.Directional) + len(s.Points) + len(s.Spots)
}

// Bounds is the box around every model, or the zero box for an empty scene.
func (s *Scene) Bounds() AABB {
	if len(s.Models) == 0 {
		return AABB{}
	}
	b := s.Models[0].Bounds()
	for _, m := range s.Models[1:] {
		mb := m.Bounds()
		b = b.extend(mb.Min).extend(mb.Max)
	}
	return b
}

// Delete frees every model.
func (s *Scene) Delete() {
	for _, m := range s.Models {
		m.Delete()
	}
	s.Models = nil
}
