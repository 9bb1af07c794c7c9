// Package capture writes rendered frames to image files.
package capture

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"go.uber.org/zap"

	"deferred-renderer/internal/logger"
)

// JPEGQuality is used for .jpg and .jpeg files.
const JPEGQuality = 95

// ErrUnknownFormat is returned for file extensions with no encoder.
var ErrUnknownFormat = errors.New("unknown image format")

// PixelReader is the part of gpu.Context that reads back a framebuffer.
type PixelReader interface {
	ReadPixels(x, y, width, height int) (*image.RGBA, error)
}

type encoder func(w io.Writer, img image.Image) error

var encoders = map[string]encoder{
	".png":  png.Encode,
	".jpg":  encodeJPEG,
	".jpeg": encodeJPEG,
	".bmp":  bmp.Encode,
	".tif":  encodeTIFF,
	".tiff": encodeTIFF,
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// Formats lists the supported file extensions.
func Formats() []string {
	return []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff"}
}

// Save reads the width x height region at (x, y) of the bound framebuffer
// and writes it to path, choosing the encoder from the file extension.
func Save(src PixelReader, path string, x, y, width, height int) error {
	enc, err := encoderFor(path)
	if err != nil {
		return err
	}
	img, err := src.ReadPixels(x, y, width, height)
	if err != nil {
		return fmt.Errorf("capture %s: %w", path, err)
	}
	if err := write(path, img, enc); err != nil {
		return err
	}
	logger.Log.Info("saved screenshot",
		zap.String("path", path),
		zap.Int("width", img.Rect.Dx()),
		zap.Int("height", img.Rect.Dy()),
	)
	return nil
}

// SaveImage writes img to path, choosing the encoder from the extension.
func SaveImage(img image.Image, path string) error {
	enc, err := encoderFor(path)
	if err != nil {
		return err
	}
	return write(path, img, enc)
}

func encoderFor(path string) (encoder, error) {
	ext := strings.ToLower(filepath.Ext(path))
	enc, ok := encoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	return enc, nil
}

func write(path string, img image.Image, enc encoder) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("capture: %w", cerr)
		}
	}()
	if err := enc(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// Thumbnail scales img down to at most maxWidth pixels wide, keeping the
// aspect ratio. Images already narrow enough are returned unchanged.
func Thumbnail(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(b.Dy()*maxWidth/b.Dx(), 1)
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
