package scene

import (
	"image"

	"deferred-renderer/core"
)

// Material describes the surface attributes written to the geometry buffer.
type Material struct {
	Name   string
	Albedo core.Color // multiplied with AlbedoTexture and the vertex color

	// Blinn-Phong highlight: intensity scales the highlight, power is the
	// exponent (larger is tighter). SpecularPower 0 disables the highlight.
	SpecularIntensity float32
	SpecularPower     float32

	// Optional albedo image, uploaded when a Model is created.
	AlbedoTexture *image.RGBA
}

// DefaultMaterial returns a plain white material with a soft highlight.
func DefaultMaterial() *Material {
	return &Material{
		Name:              "Default",
		Albedo:            core.ColorWhite,
		SpecularIntensity: 0.3,
		SpecularPower:     32,
	}
}

// NewMaterial creates a material with the given albedo color.
func NewMaterial(name string, albedo core.Color) *Material {
	return &Material{
		Name:              name,
		Albedo:            albedo,
		SpecularIntensity: 0.5,
		SpecularPower:     32,
	}
}

// MaterialFromMetallicRoughness approximates a metallic-roughness material
// with Blinn-Phong parameters: smooth surfaces get a tight highlight and
// metals a strong one.
func MaterialFromMetallicRoughness(name string, albedo core.Color, metallic, roughness float32) *Material {
	return &Material{
		Name:              name,
		Albedo:            albedo,
		SpecularPower:     (1-roughness)*(1-roughness)*128 + 1,
		SpecularIntensity: 0.04 + metallic*0.66,
	}
}
