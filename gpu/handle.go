package gpu

import "fmt"

// Generation counts how many times an owner has replaced or overwritten its
// textures. The zero value is ready to use.
type Generation struct {
	n uint64
}

// Bump invalidates every TextureRef handed out so far.
func (g *Generation) Bump() {
	g.n++
}

func (g *Generation) Current() uint64 {
	return g.n
}

// Ref wraps t in a handle tied to the current generation.
func (g *Generation) Ref(t Texture) TextureRef {
	return TextureRef{tex: t, gen: g.n, owner: g}
}

// TextureRef is a borrowed texture that is only valid until its owner bumps
// its generation. The zero value is never valid.
type TextureRef struct {
	tex   Texture
	gen   uint64
	owner *Generation
}

// Valid reports whether the handle can still be resolved.
func (r TextureRef) Valid() bool {
	return r.owner != nil && r.tex != nil && r.gen == r.owner.n
}

// Resolve returns the texture, or ErrStaleTexture once the owner moved on.
func (r TextureRef) Resolve() (Texture, error) {
	if r.owner == nil || r.tex == nil {
		return nil, fmt.Errorf("%w: empty handle", ErrStaleTexture)
	}
	if r.gen != r.owner.n {
		return nil, fmt.Errorf("%w: generation %d, owner at %d", ErrStaleTexture, r.gen, r.owner.n)
	}
	return r.tex, nil
}

func (r TextureRef) Generation() uint64 {
	return r.gen
}
