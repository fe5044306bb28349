package imgio

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Same keeps the source format on save.
const Same = "same"

// Formats lists the encoders available to Encode and Save.
var Formats = []string{"png", "jpeg", "gif", "bmp", "tiff", "webp", "tga"}

func Supported(format string) bool {
	return format == Same || slices.Contains(Formats, format)
}

type decoder struct {
	name   string
	magic  string
	decode func(io.Reader) (image.Image, error)
}

// TGA has no signature, so it is never sniffed and only chosen by extension.
// Dispatch is explicit instead of going through image.Decode because the tga
// package registers itself with an empty magic that matches any input.
var decoders = []decoder{
	{"png", "\x89PNG\r\n\x1a\n", png.Decode},
	{"jpeg", "\xff\xd8", jpeg.Decode},
	{"gif", "GIF8?a", gif.Decode},
	{"bmp", "BM????\x00\x00\x00\x00", bmp.Decode},
	{"tiff", "II\x2A\x00", tiff.Decode},
	{"tiff", "MM\x00\x2A", tiff.Decode},
	{"webp", "RIFF????WEBPVP8", webp.Decode},
}

func match(magic string, b []byte) bool {
	if len(magic) != len(b) {
		return false
	}
	for i, c := range b {
		if magic[i] != c && magic[i] != '?' {
			return false
		}
	}
	return true
}

// Decode opens and decodes the image at path, returning the detected format.
func Decode(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("could not open image %q: %w", path, err)
	}
	defer f.Close()

	img, format, err := DecodeReader(f, filepath.Base(path))
	if err != nil {
		return nil, "", fmt.Errorf("could not decode image %q: %w", path, err)
	}
	return img, format, nil
}

// DecodeReader sniffs the stream signature; name is only consulted for TGA.
func DecodeReader(r io.Reader, name string) (image.Image, string, error) {
	br := bufio.NewReader(r)
	for _, d := range decoders {
		b, err := br.Peek(len(d.magic))
		if err == nil && match(d.magic, b) {
			img, err := d.decode(br)
			return img, d.name, err
		}
	}

	if strings.EqualFold(filepath.Ext(name), ".tga") {
		img, err := tga.Decode(br)
		return img, "tga", err
	}
	return nil, "", image.ErrFormat
}

func Encode(w io.Writer, img image.Image, format string) error {
	var err error
	switch format {
	case "gif":
		err = gif.Encode(w, img, gifOptions(img))
	case "jpeg":
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case "png":
		enc := png.Encoder{
			CompressionLevel: png.BestCompression,
			BufferPool:       pngPool,
		}
		err = enc.Encode(w, img)
	case "bmp":
		err = bmp.Encode(w, img)
	case "tiff":
		err = tiff.Encode(w, img, nil)
	case "webp":
		err = nativewebp.Encode(w, img, nil)
	case "tga":
		err = tga.Encode(w, img)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", strings.ToUpper(format), err)
	}
	return nil
}

// gifOptions keeps the exact colors of pictures that fit a GIF palette. Larger
// palettes fall back to the encoder's Plan9 quantization.
func gifOptions(img image.Image) *gif.Options {
	pal := exactPalette(img, 256)
	if len(pal) == 0 {
		return nil
	}
	return &gif.Options{NumColors: len(pal), Quantizer: fixedPalette(pal), Drawer: draw.Src}
}

// exactPalette returns the distinct colors of img, or nil when there are more
// than limit.
func exactPalette(img image.Image, limit int) color.Palette {
	seen := make(map[color.RGBA64]struct{})
	var pal color.Palette
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBA64Model.Convert(img.At(x, y)).(color.RGBA64)
			if _, ok := seen[c]; ok {
				continue
			}
			if len(pal) == limit {
				return nil
			}
			seen[c] = struct{}{}
			pal = append(pal, c)
		}
	}
	return pal
}

type fixedPalette color.Palette

var _ draw.Quantizer = fixedPalette(nil)

func (f fixedPalette) Quantize(p color.Palette, _ image.Image) color.Palette {
	return append(p, f...)
}

// DestName returns the file name srcName gets once saved as format.
func DestName(srcName, format string) string {
	oldExt := filepath.Ext(srcName)
	return fmt.Sprintf("%s.%s", srcName[:len(srcName)-len(oldExt)], format)
}

// Save encodes img into destDir through a temporary file that is renamed into
// place only once encoding succeeded. It returns the final path.
func Save(img image.Image, srcType, outType, destDir, srcName string) (path string, err error) {
	if outType == Same {
		outType = srcType
	}

	destName := DestName(srcName, outType)
	path = filepath.Join(destDir, destName)

	outFile, err := os.CreateTemp(destDir, destName)
	if err != nil {
		return "", fmt.Errorf("could not create temporary destination %q: %w", destName, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", destName, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", destName, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), path); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", destName, defErr)
			}
		}
		if err != nil {
			os.Remove(outFile.Name())
		}
	}()

	if err = Encode(outFile, img, outType); err != nil {
		return "", fmt.Errorf("could not write destination %q: %w", destName, err)
	}
	// CreateTemp opens with 0600.
	if err = outFile.Chmod(0o644); err != nil {
		return "", fmt.Errorf("could not set mode of destination %q: %w", destName, err)
	}

	canRename = true
	return path, nil
}

type pngEncoderBufferPool struct {
	pool sync.Pool
}

func (p *pngEncoderBufferPool) Get() *png.EncoderBuffer {
	return p.pool.Get().(*png.EncoderBuffer)
}

func (p *pngEncoderBufferPool) Put(buf *png.EncoderBuffer) {
	p.pool.Put(buf)
}

var pngPool = &pngEncoderBufferPool{
	pool: sync.Pool{
		New: func() any {
			return &png.EncoderBuffer{}
		},
	},
}
