package imgio

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
)

func testImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for y := range 3 {
		for x := range 4 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(60 * x), G: uint8(80 * y), B: 200, A: 0xFF})
		}
	}
	return img
}

func TestEncodeDecode(t *testing.T) {
	src := testImage()
	for _, format := range []string{"png", "bmp", "tiff", "webp", "gif", "jpeg"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, src, format); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			img, got, err := DecodeReader(&buf, "page."+format)
			if err != nil {
				t.Fatalf("could not decode: %v", err)
			}
			if got != format {
				t.Errorf("decoded format %q, want %q", got, format)
			}
			if img.Bounds() != src.Bounds() {
				t.Errorf("bounds %v, want %v", img.Bounds(), src.Bounds())
			}
		})
	}
}

func TestEncodeLossless(t *testing.T) {
	src := testImage()
	for _, format := range []string{"png", "bmp", "tiff", "gif"} {
		var buf bytes.Buffer
		if err := Encode(&buf, src, format); err != nil {
			t.Fatalf("%s: unexpected error: %v", format, err)
		}
		img, _, err := DecodeReader(&buf, "page")
		if err != nil {
			t.Fatalf("%s: could not decode: %v", format, err)
		}
		for y := range 3 {
			for x := range 4 {
				want := src.NRGBAAt(x, y)
				got := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				if got != want {
					t.Fatalf("%s: pixel (%d,%d) = %v, want %v", format, x, y, got, want)
				}
			}
		}
	}
}

func TestGIFPalette(t *testing.T) {
	if pal := exactPalette(testImage(), 256); len(pal) != 12 {
		t.Errorf("expected 12 colors, got %d", len(pal))
	}
	if pal := exactPalette(testImage(), 11); pal != nil {
		t.Errorf("expected no palette above the limit, got %d colors", len(pal))
	}

	wide := image.NewNRGBA(image.Rect(0, 0, 300, 1))
	for x := range 300 {
		wide.SetNRGBA(x, 0, color.NRGBA{R: uint8(x), G: uint8(x / 256), A: 0xFF})
	}
	if opts := gifOptions(wide); opts != nil {
		t.Errorf("expected the default quantizer for %d colors, got %d", 300, opts.NumColors)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, wide, "gif"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEncodeTGA(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), "tga"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := buf.Bytes()

	img, format, err := DecodeReader(bytes.NewReader(data), "page.TGA")
	if err != nil {
		t.Fatalf("could not decode: %v", err)
	}
	if format != "tga" || img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
		t.Errorf("unexpected result: %s %v", format, img.Bounds())
	}

	if _, err := tga.Decode(bytes.NewReader(data)); err != nil {
		t.Errorf("tga package could not decode: %v", err)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, testImage(), "avif"); err == nil {
		t.Errorf("expected an error for an unsupported format")
	}
	if Supported("avif") {
		t.Errorf("avif reported as supported")
	}
	if !Supported(Same) || !Supported("webp") {
		t.Errorf("expected same and webp to be supported")
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	path, err := Save(testImage(), "png", Same, dir, "scan.page1.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := filepath.Join(dir, "scan.page1.png"); path != want {
		t.Errorf("saved to %q, want %q", path, want)
	}

	img, format, err := Decode(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if format != "png" || img.Bounds().Dx() != 4 {
		t.Errorf("unexpected result: %s %v", format, img.Bounds())
	}

	path, err = Save(testImage(), "png", "bmp", dir, "scan.jpg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filepath.Base(path) != "scan.bmp" {
		t.Errorf("unexpected destination %q", path)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o644 {
		t.Errorf("saved with mode %v, want %v", mode, os.FileMode(0o644))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 files without temporaries, got %d", len(entries))
	}
}

func TestSaveFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	if _, err := Save(testImage(), "png", "avif", dir, "scan.png"); err == nil {
		t.Fatalf("expected an error")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected an empty folder, found %d entries", len(entries))
	}
}

func TestDecodeUnknown(t *testing.T) {
	_, _, err := DecodeReader(bytes.NewReader([]byte("not an image at all")), "notes.txt")
	if !errors.Is(err, image.ErrFormat) {
		t.Errorf("expected image.ErrFormat, got %v", err)
	}
}

func TestDecodeMissing(t *testing.T) {
	if _, _, err := Decode(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Errorf("expected an error")
	}
}
