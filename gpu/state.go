package gpu

type DepthTest int

const (
	DepthTestNone DepthTest = iota
	DepthTestLess
	DepthTestLessOrEqual
	DepthTestAlways
)

type Cull int

const (
	CullNone Cull = iota
	CullBack
	CullFront
)

type Blend int

const (
	BlendNone Blend = iota
	// BlendAlpha is SRC_ALPHA, ONE_MINUS_SRC_ALPHA.
	BlendAlpha
	// BlendAdditive is ONE, ONE.
	BlendAdditive
)

// State is the fixed-function configuration applied before a draw.
// DepthTestNone disables the depth test, which in OpenGL also disables depth
// writes; use DepthTestAlways to write depth unconditionally.
type State struct {
	DepthWrite bool
	DepthTest  DepthTest
	Cull       Cull
	Blend      Blend
}

// Preset states.
var (
	// GeometryState rasterizes opaque geometry into a render target.
	GeometryState = State{DepthWrite: true, DepthTest: DepthTestLess, Cull: CullBack, Blend: BlendNone}

	// ScreenOverlayState composites a full-screen pass over the current
	// framebuffer without touching depth.
	ScreenOverlayState = State{DepthWrite: false, DepthTest: DepthTestNone, Cull: CullBack, Blend: BlendAlpha}
)
