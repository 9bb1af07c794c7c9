package effects

import (
	"fmt"

	"deferred-renderer/gpu"
	"deferred-renderer/pipeline"
	"deferred-renderer/scene"
)

// DebugMode selects the pipeline texture the Debug effect shows.
type DebugMode int

// The values are the mode uniform in debug.frag.
const (
	DebugNone DebugMode = iota
	DebugPosition
	DebugNormal
	DebugColor
	DebugDepth
	DebugSpecular

	debugModeCount
)

var debugModeNames = [...]string{"None", "Position", "Normal", "Color", "Depth", "Specular"}

func (m DebugMode) String() string {
	if m >= 0 && m < debugModeCount {
		return debugModeNames[m]
	}
	return fmt.Sprintf("DebugMode(%d)", int(m))
}

// DebugModes lists every mode in cycling order.
func DebugModes() []DebugMode {
	modes := make([]DebugMode, debugModeCount)
	for i := range modes {
		modes[i] = DebugMode(i)
	}
	return modes
}

// Debug replaces the frame with a visualization of one pipeline texture.
type Debug struct {
	screenPass
	mode DebugMode
}

func NewDebug(ctx gpu.Context) (*Debug, error) {
	pass, err := newScreenPass(ctx, "debug", gpu.FullScreenTriangle())
	if err != nil {
		return nil, err
	}
	return &Debug{screenPass: pass}, nil
}

// NextMode advances to the following mode, wrapping after the last.
func (d *Debug) NextMode() DebugMode {
	d.mode = (d.mode + 1) % debugModeCount
	return d.mode
}

func (d *Debug) Mode() DebugMode {
	return d.mode
}

// SetMode selects m; out-of-range values select DebugNone.
func (d *Debug) SetMode(m DebugMode) {
	if m < 0 || m >= debugModeCount {
		m = DebugNone
	}
	d.mode = m
}

func (d *Debug) String() string {
	return "debug: " + d.mode.String()
}

// Apply draws nothing in DebugNone.
func (d *Debug) Apply(cam *scene.Camera, in pipeline.Outputs) error {
	if d.mode == DebugNone {
		return nil
	}
	if err := d.camera(cam); err != nil {
		return err
	}
	bindings := []struct {
		sampler string
		ref     gpu.TextureRef
	}{
		{"positionMap", in.Position},
		{"normalMap", in.Normal},
		{"colorMap", in.Color},
		{"depthMap", in.Depth},
	}
	for unit, b := range bindings {
		if err := d.bind(b.sampler, unit, b.ref); err != nil {
			return err
		}
	}
	p := d.program
	err := d.uniforms(
		func() error { return p.SetInt("mode", int32(d.mode)) },
		func() error { return p.SetFloat("zNear", cam.Near()) },
		func() error { return p.SetFloat("zFar", cam.Far()) },
	)
	if err != nil {
		return err
	}
	return d.draw()
}
