package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeTestPNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestProcessorIsImage(t *testing.T) {
	p := NewProcessor(t.TempDir())

	tests := []struct {
		mimeType string
		want     bool
	}{
		{"image/jpeg", true},
		{"image/png", true},
		{"image/gif", true},
		{"image/webp", true},
		{"application/pdf", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := p.IsImage(tt.mimeType); got != tt.want {
			t.Errorf("IsImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
		{"empty", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestProcessImage(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := encodeTestPNG(t, createTestImage(800, 600))

	result, err := p.ProcessImage(bytes.NewReader(data), "test-uuid", "photo.png")
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}

	if result.Width != 800 || result.Height != 600 {
		t.Errorf("dimensions = %dx%d, want 800x600", result.Width, result.Height)
	}
	if result.MimeType != "image/png" {
		t.Errorf("MimeType = %q, want image/png", result.MimeType)
	}

	// The stored file exists under the upload root.
	if _, err := os.Stat(p.AbsPath(result.FilePath)); err != nil {
		t.Errorf("stored original missing: %v", err)
	}
	if filepath.IsAbs(result.FilePath) {
		t.Errorf("FilePath = %q, want a relative path", result.FilePath)
	}
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	p := NewProcessor(t.TempDir())

	if _, err := p.ProcessImage(bytes.NewReader([]byte("not an image")), "u", "x.png"); err == nil {
		t.Error("garbage input should be rejected")
	}
}

func TestCreateVariants(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := encodeTestPNG(t, createTestImage(1600, 1200))
	result, err := p.ProcessImage(bytes.NewReader(data), "test-uuid", "photo.png")
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}

	variants, err := p.CreateAllVariants(p.AbsPath(result.FilePath), "test-uuid", "photo.png")
	if err != nil {
		t.Fatalf("CreateAllVariants failed: %v", err)
	}
	if len(variants) != len(Variants) {
		t.Fatalf("variant count = %d, want %d", len(variants), len(Variants))
	}

	for _, v := range variants {
		cfg := Variants[v.Type]
		if v.Width > cfg.Width || v.Height > cfg.Height {
			t.Errorf("%s variant = %dx%d, want within %dx%d", v.Type, v.Width, v.Height, cfg.Width, cfg.Height)
		}
		if _, err := os.Stat(p.AbsPath(v.FilePath)); err != nil {
			t.Errorf("%s variant file missing: %v", v.Type, err)
		}
	}
}

func TestCreateVariantSkipsSmallSource(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := encodeTestPNG(t, createTestImage(100, 80))
	result, err := p.ProcessImage(bytes.NewReader(data), "small-uuid", "small.png")
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}

	// Upscaling is pointless for the non-cropped card variant.
	v, err := p.CreateVariant(p.AbsPath(result.FilePath), "small-uuid", "small.png", Variants["card"], "card")
	if err != nil {
		t.Fatalf("CreateVariant failed: %v", err)
	}
	if v != nil {
		t.Errorf("variant = %+v, want nil for a small source", v)
	}
}

func TestDeleteImageFiles(t *testing.T) {
	dir := t.TempDir()
	p := NewProcessor(dir)

	data := encodeTestPNG(t, createTestImage(1600, 1200))
	result, err := p.ProcessImage(bytes.NewReader(data), "del-uuid", "photo.png")
	if err != nil {
		t.Fatalf("ProcessImage failed: %v", err)
	}
	if _, err := p.CreateAllVariants(p.AbsPath(result.FilePath), "del-uuid", "photo.png"); err != nil {
		t.Fatalf("CreateAllVariants failed: %v", err)
	}

	if err := p.DeleteImageFiles("del-uuid"); err != nil {
		t.Fatalf("DeleteImageFiles failed: %v", err)
	}
	if _, err := os.Stat(p.AbsPath(result.FilePath)); !os.IsNotExist(err) {
		t.Error("original should be removed")
	}
}
