// Package shaders embeds the GLSL sources and assembles them by program name.
//
// Source files omit the #version line; Load prepends it together with any
// shared snippets the program lists.
package shaders

import (
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
)

//go:embed *.vert *.frag *.glsl
var files embed.FS

const header = "#version 410 core\n"

// ErrUnknownProgram is returned by Load for names with no registered sources.
var ErrUnknownProgram = errors.New("unknown shader program")

type source struct {
	vert     string
	frag     string
	includes []string // prepended to the fragment shader, in order
}

var lightIncludes = []string{"lighting.glsl"}
var attenuatedIncludes = []string{"lighting.glsl", "attenuation.glsl"}

var programs = map[string]source{
	"geometry":    {vert: "geometry.vert", frag: "geometry.frag"},
	"ambient":     {vert: "fullscreen.vert", frag: "ambient.frag"},
	"directional": {vert: "fullscreen.vert", frag: "directional.frag", includes: lightIncludes},
	"point":       {vert: "fullscreen.vert", frag: "point.frag", includes: attenuatedIncludes},
	"spot":        {vert: "fullscreen.vert", frag: "spot.frag", includes: attenuatedIncludes},
	"fog":         {vert: "fullscreen.vert", frag: "fog.frag"},
	"debug":       {vert: "fullscreen.vert", frag: "debug.frag"},
	"ao":          {vert: "fullscreen.vert", frag: "ao.frag"},
	"overlay":     {vert: "overlay.vert", frag: "overlay.frag"},
}

// Load returns the complete vertex and fragment source for a program.
func Load(name string) (vert, frag string, err error) {
	src, ok := programs[name]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownProgram, name)
	}

	v, err := files.ReadFile(src.vert)
	if err != nil {
		return "", "", fmt.Errorf("program %q: %w", name, err)
	}

	var b strings.Builder
	b.WriteString(header)
	for _, inc := range src.includes {
		data, err := files.ReadFile(inc)
		if err != nil {
			return "", "", fmt.Errorf("program %q: %w", name, err)
		}
		b.Write(data)
		b.WriteString("\n")
	}
	f, err := files.ReadFile(src.frag)
	if err != nil {
		return "", "", fmt.Errorf("program %q: %w", name, err)
	}
	b.Write(f)

	return header + string(v), b.String(), nil
}

// Names lists every registered program in sorted order.
func Names() []string {
	names := make([]string, 0, len(programs))
	for n := range programs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
