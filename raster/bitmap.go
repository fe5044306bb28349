package raster

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Bitmap is an uncompressed, interleaved 8-bit RGB or RGBA pixel buffer. Pixel
// (x, y) starts at Pix[(y*Width+x)*Channels]. RGBA samples are not
// premultiplied.
type Bitmap struct {
	Pix      []uint8
	Width    int
	Height   int
	Channels int
}

func New(width, height, channels int) *Bitmap {
	return &Bitmap{
		Pix:      make([]uint8, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

func (b *Bitmap) Validate() error {
	switch {
	case b.Channels != 3 && b.Channels != 4:
		return fmt.Errorf("unsupported channel count: %d", b.Channels)
	case b.Width < 0 || b.Height < 0:
		return fmt.Errorf("invalid dimensions: %dx%d", b.Width, b.Height)
	case len(b.Pix) != b.Width*b.Height*b.Channels:
		return fmt.Errorf("buffer holds %d bytes, %dx%dx%d needs %d", len(b.Pix),
			b.Width, b.Height, b.Channels, b.Width*b.Height*b.Channels)
	}
	return nil
}

// WithPix returns a bitmap of the same geometry over pix.
func (b *Bitmap) WithPix(pix []uint8) *Bitmap {
	return &Bitmap{Pix: pix, Width: b.Width, Height: b.Height, Channels: b.Channels}
}

func (b *Bitmap) Clone() *Bitmap {
	c := *b
	c.Pix = append([]uint8(nil), b.Pix...)
	return &c
}

type opaquer interface {
	Opaque() bool
}

// FromImage flattens img into a bitmap. Images that report themselves opaque
// become RGB, everything else RGBA.
func FromImage(img image.Image) *Bitmap {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) || nrgba.Stride != 4*w {
		nrgba = image.NewNRGBA(image.Rect(0, 0, w, h))
		draw.Draw(nrgba, nrgba.Rect, img, bounds.Min, draw.Src)
	}

	if o, ok := img.(opaquer); !ok || !o.Opaque() {
		return &Bitmap{
			Pix:      append([]uint8(nil), nrgba.Pix[:w*h*4]...),
			Width:    w,
			Height:   h,
			Channels: 4,
		}
	}

	bm := New(w, h, 3)
	for i, j := 0, 0; j < len(bm.Pix); i, j = i+4, j+3 {
		bm.Pix[j], bm.Pix[j+1], bm.Pix[j+2] = nrgba.Pix[i], nrgba.Pix[i+1], nrgba.Pix[i+2]
	}
	return bm
}

// Image returns the bitmap as an NRGBA image anchored at the origin. RGB
// bitmaps get full alpha.
func (b *Bitmap) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	if b.Channels == 4 {
		copy(img.Pix, b.Pix)
		return img
	}

	for i, j := 0, 0; i < len(b.Pix); i, j = i+3, j+4 {
		img.Pix[j], img.Pix[j+1], img.Pix[j+2], img.Pix[j+3] = b.Pix[i], b.Pix[i+1], b.Pix[i+2], 0xFF
	}
	return img
}
