package scene

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
)

// LoadTexture reads a PNG, JPEG, BMP or TIFF file into an RGBA image.
func LoadTexture(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture %q: %w", path, err)
	}
	defer f.Close()

	img, err := DecodeTexture(f)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", path, err)
	}
	return img, nil
}

// DecodeTexture decodes any registered image format and converts it to RGBA
// with its origin at (0, 0).
func DecodeTexture(r io.Reader) (*image.RGBA, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba, nil
}

func decodeTextureBytes(data []byte) (*image.RGBA, error) {
	return DecodeTexture(bytes.NewReader(data))
}

// SolidTexture returns a 1x1 image of c.
func SolidTexture(c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, c)
	return img
}

// CheckerTexture returns a size x size checkerboard with cells of cell pixels.
func CheckerTexture(size, cell int, a, b color.RGBA) *image.RGBA {
	if cell <= 0 {
		cell = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, a)
			} else {
				img.SetRGBA(x, y, b)
			}
		}
	}
	return img
}
