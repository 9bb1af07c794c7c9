package main

import (
	"deferred-renderer/core"
	"deferred-renderer/effects"
	"deferred-renderer/scene"
)

// Controls maps window input events to camera and effect changes.
type Controls struct {
	camera *scene.Camera
	debug  *effects.Debug
	fog    *effects.Fog
	ao     *effects.AmbientOcclusion

	dragging bool
}

func NewControls(camera *scene.Camera, debug *effects.Debug, fog *effects.Fog, ao *effects.AmbientOcclusion) *Controls {
	return &Controls{
		camera: camera,
		debug:  debug,
		fog:    fog,
		ao:     ao,
	}
}

// Handle applies events in order. Escape returns core.ErrStopLoop.
func (c *Controls) Handle(events []core.Event) error {
	for _, e := range events {
		switch e.Kind {
		case core.EventMousePress:
			if e.Button == core.MouseLeft {
				c.dragging = true
			}
		case core.EventMouseRelease:
			if e.Button == core.MouseLeft {
				c.dragging = false
			}
		case core.EventMouseMotion:
			if c.dragging {
				c.camera.Rotate(float32(e.DX), float32(e.DY))
			}
		case core.EventScroll:
			c.camera.Zoom(float32(e.DY))
		case core.EventKeyPress:
			if err := c.key(e.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Controls) key(name string) error {
	switch name {
	case "Escape":
		return core.ErrStopLoop
	case "R":
		c.debug.NextMode()
	case "Space":
		c.fog.Paused = !c.fog.Paused
	case "O":
		c.ao.Enabled = !c.ao.Enabled
	}
	return nil
}

// Dragging reports whether the left button is held for orbiting.
func (c *Controls) Dragging() bool {
	return c.dragging
}
