// Package media turns an uploaded site icon into a bounded PNG and stores it
// on local disk or in Cloudinary.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	MaxIconBytes     = 5 << 20 // 5MB
	MaxIconDimension = 512
)

var (
	ErrTooLarge    = errors.New("icon exceeds 5MB")
	ErrUnsupported = errors.New("unsupported image")
)

// Icon is a processed icon ready for storage.
type Icon struct {
	Data   []byte
	Width  int
	Height int
}

// Process decodes an image, scales it so neither side exceeds
// MaxIconDimension, and re-encodes it as PNG.
func Process(src io.Reader) (Icon, error) {
	raw, err := io.ReadAll(io.LimitReader(src, MaxIconBytes+1))
	if err != nil {
		return Icon{}, fmt.Errorf("read icon: %w", err)
	}
	if len(raw) > MaxIconBytes {
		return Icon{}, ErrTooLarge
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Icon{}, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > MaxIconDimension || h > MaxIconDimension {
		nw, nh := fit(w, h, MaxIconDimension)
		dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = nw, nh
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Icon{}, fmt.Errorf("encode png: %w", err)
	}
	return Icon{Data: buf.Bytes(), Width: w, Height: h}, nil
}

// fit scales w x h so the longer side equals limit, keeping the aspect ratio.
func fit(w, h, limit int) (int, int) {
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
