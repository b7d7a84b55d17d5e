// Package scanner implements the scan pipeline: a frame source standing in
// for the camera device, a capture loop sampling it on a fixed cadence, a
// decoder adapter turning frames into barcode payloads, and the scan session
// state machine driving detection, debounce and the manual-entry fallback.
package scanner

import (
	"context"
	"image"
	"image/draw"
)

// Frame is one raw image sample: RGBA pixel bytes, 4 per pixel, row-major.
type Frame struct {
	Width  int
	Height int
	Pixels []byte
}

// Image wraps the frame buffer as an image without copying
func (f Frame) Image() image.Image {
	return &image.RGBA{
		Pix:    f.Pixels,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// FrameFromImage converts any image into a Frame
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return Frame{Width: b.Dx(), Height: b.Dy(), Pixels: rgba.Pix}
}

// FrameSource abstracts the video input device. The camera is an exclusive
// resource: it is held from a successful Open until Close.
type FrameSource interface {
	// Open acquires the device. Permission or availability failures
	// surface here and translate into the session's error state.
	Open(ctx context.Context) error
	// Frame returns the next sampled frame. A failed sample is treated
	// as noise by the capture loop.
	Frame(ctx context.Context) (Frame, error)
	// Close releases the device. Must be safe to call repeatedly and
	// before Open has completed.
	Close() error
}
