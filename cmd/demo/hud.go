package main

import (
	"fmt"
)

// DebugOverlay collects the status lines shown by the text overlay.
type DebugOverlay struct {
	lines []string
}

func (do *DebugOverlay) AddLine(format string, args ...any) {
	do.lines = append(do.lines, fmt.Sprintf(format, args...))
}

func (do *DebugOverlay) Clear() {
	do.lines = do.lines[:0]
}

func (do *DebugOverlay) Lines() []string {
	return do.lines
}

// fpsCounter reports the frame count of the last full second.
type fpsCounter struct {
	frames  int
	elapsed float64
	fps     int
}

func (f *fpsCounter) Tick(dt float64) {
	f.frames++
	f.elapsed += dt
	if f.elapsed >= 1 {
		f.fps = f.frames
		f.frames = 0
		f.elapsed = 0
	}
}

func (f *fpsCounter) FPS() int {
	return f.fps
}
