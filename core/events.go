package core

import "errors"

// ErrStopLoop may be returned from a frame callback to end the render loop
// without reporting an error.
var ErrStopLoop = errors.New("stop render loop")

type EventKind int

const (
	EventMousePress EventKind = iota
	EventMouseRelease
	EventMouseMotion
	EventScroll
	EventKeyPress
	EventKeyRelease
)

func (k EventKind) String() string {
	switch k {
	case EventMousePress:
		return "mouse-press"
	case EventMouseRelease:
		return "mouse-release"
	case EventMouseMotion:
		return "mouse-motion"
	case EventScroll:
		return "scroll"
	case EventKeyPress:
		return "key-press"
	case EventKeyRelease:
		return "key-release"
	}
	return "unknown"
}

type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Event is one discrete input event collected between two frames.
//
// X/Y hold the cursor position for mouse events. DX/DY hold the motion
// delta for EventMouseMotion and the wheel offset for EventScroll.
// Key holds a stable key name such as "R", "Space" or "Escape".
type Event struct {
	Kind   EventKind
	Button MouseButton
	X, Y   float64
	DX, DY float64
	Key    string
}

// FrameInput is handed to the frame callback once per frame.
type FrameInput struct {
	Elapsed float64 // seconds since the previous frame
	Width   int     // framebuffer width in pixels
	Height  int     // framebuffer height in pixels
	Events  []Event
}
