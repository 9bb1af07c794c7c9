package core

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	// GLFW and the GL context must stay on the main OS thread.
	runtime.LockOSThread()
}

// Window owns a GLFW window with a current OpenGL 4.1 core context and
// queues input events for the render loop.
type Window struct {
	Handle *glfw.Window
	Title  string

	events     []Event
	cursorX    float64
	cursorY    float64
	haveCursor bool
}

type WindowConfig struct {
	Width     int
	Height    int
	Title     string
	Resizable bool
	VSync     bool
	Visible   bool
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Width:     1280,
		Height:    720,
		Title:     "Deferred Renderer",
		Resizable: true,
		VSync:     true,
		Visible:   true,
	}
}

// NewWindow initialises GLFW, creates the window and makes its context current.
func NewWindow(config WindowConfig) (*Window, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", config.Width, config.Height)
	}
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.Resizable, boolToInt(config.Resizable))
	glfw.WindowHint(glfw.Visible, boolToInt(config.Visible))

	handle, err := glfw.CreateWindow(config.Width, config.Height, config.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	handle.MakeContextCurrent()
	if config.VSync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	w := &Window{Handle: handle, Title: config.Title}
	w.installCallbacks()
	return w, nil
}

func (w *Window) installCallbacks() {
	w.Handle.SetMouseButtonCallback(func(_ *glfw.Window, b glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		kind := EventMousePress
		if action == glfw.Release {
			kind = EventMouseRelease
		}
		w.events = append(w.events, Event{Kind: kind, Button: mouseButton(b), X: w.cursorX, Y: w.cursorY})
	})

	w.Handle.SetCursorPosCallback(func(_ *glfw.Window, x, y float64) {
		var dx, dy float64
		if w.haveCursor {
			dx, dy = x-w.cursorX, y-w.cursorY
		}
		w.cursorX, w.cursorY, w.haveCursor = x, y, true
		w.events = append(w.events, Event{Kind: EventMouseMotion, X: x, Y: y, DX: dx, DY: dy})
	})

	w.Handle.SetScrollCallback(func(_ *glfw.Window, xoff, yoff float64) {
		w.events = append(w.events, Event{Kind: EventScroll, X: w.cursorX, Y: w.cursorY, DX: xoff, DY: yoff})
	})

	w.Handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, scancode int, action glfw.Action, _ glfw.ModifierKey) {
		var kind EventKind
		switch action {
		case glfw.Press:
			kind = EventKeyPress
		case glfw.Release:
			kind = EventKeyRelease
		default:
			return // repeats are not discrete presses
		}
		w.events = append(w.events, Event{Kind: kind, Key: keyName(key, glfw.GetKeyName(key, scancode))})
	})
}

// RenderLoop polls input and calls frame once per displayed frame until the
// window is closed or frame returns an error. ErrStopLoop ends the loop
// cleanly; any other error is returned to the caller.
func (w *Window) RenderLoop(frame func(FrameInput) error) error {
	last := glfw.GetTime()
	for !w.Handle.ShouldClose() {
		glfw.PollEvents()

		now := glfw.GetTime()
		in := FrameInput{Elapsed: now - last, Events: w.events}
		w.events = nil
		last = now
		in.Width, in.Height = w.Handle.GetFramebufferSize()

		if err := frame(in); err != nil {
			if errors.Is(err, ErrStopLoop) {
				return nil
			}
			return err
		}
		w.Handle.SwapBuffers()
	}
	return nil
}

func (w *Window) FramebufferSize() (int, int) {
	return w.Handle.GetFramebufferSize()
}

func (w *Window) SetTitle(title string) {
	w.Handle.SetTitle(title)
	w.Title = title
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func boolToInt(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}

func mouseButton(b glfw.MouseButton) MouseButton {
	switch b {
	case glfw.MouseButtonRight:
		return MouseRight
	case glfw.MouseButtonMiddle:
		return MouseMiddle
	}
	return MouseLeft
}

var namedKeys = map[glfw.Key]string{
	glfw.KeySpace:     "Space",
	glfw.KeyEscape:    "Escape",
	glfw.KeyEnter:     "Enter",
	glfw.KeyTab:       "Tab",
	glfw.KeyBackspace: "Backspace",
	glfw.KeyLeft:      "Left",
	glfw.KeyRight:     "Right",
	glfw.KeyUp:        "Up",
	glfw.KeyDown:      "Down",
	glfw.KeyF1:        "F1",
	glfw.KeyF2:        "F2",
	glfw.KeyF3:        "F3",
	glfw.KeyF12:       "F12",
}

// keyName maps a GLFW key to the identifier used in Event.Key. printable is
// the layout-aware name GLFW reports for printable keys ("" otherwise).
func keyName(key glfw.Key, printable string) string {
	if name, ok := namedKeys[key]; ok {
		return name
	}
	if printable != "" {
		return strings.ToUpper(printable)
	}
	return fmt.Sprintf("Key%d", int(key))
}
