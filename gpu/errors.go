package gpu

import (
	"errors"
	"fmt"
)

// Error kinds. Backends wrap these with fmt.Errorf("%w: ...") so callers can
// classify failures with errors.Is.
var (
	// ErrResourceAllocation covers render target, texture and buffer creation
	// failures, including invalid dimensions.
	ErrResourceAllocation = errors.New("resource allocation failed")

	// ErrShaderCompile covers missing sources, compile and link failures.
	ErrShaderCompile = errors.New("shader compilation failed")

	// ErrBinding covers uniform and texture-slot binding failures at draw time.
	ErrBinding = errors.New("binding failed")

	// ErrDraw covers draw submission failures.
	ErrDraw = errors.New("draw failed")

	// ErrStaleTexture is returned when a texture handle is used after the
	// owner reallocated or overwrote the texture.
	ErrStaleTexture = fmt.Errorf("%w: stale texture handle", ErrBinding)
)
