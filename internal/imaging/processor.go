package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// VariantConfig describes a resized rendition of a post image.
type VariantConfig struct {
	Width  int
	Height int
	// Crop selects center-crop to exact dimensions instead of fitting
	// within the bounding box.
	Crop    bool
	Quality int
}

// Variants are the renditions created for every uploaded post image.
// The card variant is shown on listing pages, the thumb on profiles.
var Variants = map[string]VariantConfig{
	"card":  {Width: 720, Height: 480, Crop: false, Quality: 85},
	"thumb": {Width: 240, Height: 240, Crop: true, Quality: 80},
}

// MaxUploadBytes bounds the size of a post image upload.
const MaxUploadBytes = 10 << 20

// ProcessResult contains the result of processing an uploaded image.
type ProcessResult struct {
	Width    int
	Height   int
	MimeType string
	Size     int64
	FilePath string
}

// VariantResult contains the result of creating an image variant.
type VariantResult struct {
	Type     string
	Width    int
	Height   int
	Size     int64
	FilePath string
}

// Processor handles post image processing using pure Go libraries.
type Processor struct {
	uploadDir string
}

// NewProcessor creates a new image processor rooted at uploadDir.
func NewProcessor(uploadDir string) *Processor {
	return &Processor{
		uploadDir: uploadDir,
	}
}

// ProcessImage reads an uploaded image, auto-rotates it per its EXIF
// orientation, stores the normalized original under originals/<uuid>/
// and returns its metadata.
func (p *Processor) ProcessImage(reader io.Reader, uuid, filename string) (*ProcessResult, error) {
	data, err := io.ReadAll(io.LimitReader(reader, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("image exceeds %d byte limit", MaxUploadBytes)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	orientation := readExifOrientation(bytes.NewReader(data))
	img = applyOrientation(img, orientation)

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	// Pure Go encoders drop EXIF metadata, which also strips GPS tags
	// from the stored original.
	processed, err := encodeImage(img, format, 95)
	if err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	subDir := filepath.Join("originals", uuid)
	filePath, err := p.saveImageFile(subDir, filename, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to save original image: %w", err)
	}

	return &ProcessResult{
		Width:    width,
		Height:   height,
		MimeType: formatToMimeType(format),
		Size:     int64(len(processed)),
		FilePath: filePath,
	}, nil
}

// CreateVariant creates a resized variant of a stored original.
// Returns nil when the source is already smaller than the target and
// no crop is requested.
func (p *Processor) CreateVariant(sourcePath, uuid, filename string, config VariantConfig, variantType string) (*VariantResult, error) {
	img, err := imaging.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source image: %w", err)
	}

	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= config.Width && srcHeight <= config.Height && !config.Crop {
		return nil, nil
	}

	var resized image.Image
	if config.Crop {
		resized = imaging.Fill(img, config.Width, config.Height, imaging.Center, imaging.Lanczos)
	} else {
		resized = imaging.Fit(img, config.Width, config.Height, imaging.Lanczos)
	}

	resBounds := resized.Bounds()
	newWidth := resBounds.Dx()
	newHeight := resBounds.Dy()

	format := detectFormatFromFilename(filename)

	processed, err := encodeImage(resized, format, config.Quality)
	if err != nil {
		return nil, fmt.Errorf("failed to encode variant: %w", err)
	}

	variantSubDir := filepath.Join(variantType, uuid)
	variantPath, err := p.saveImageFile(variantSubDir, filename, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s variant: %w", variantType, err)
	}

	return &VariantResult{
		Type:     variantType,
		Width:    newWidth,
		Height:   newHeight,
		Size:     int64(len(processed)),
		FilePath: variantPath,
	}, nil
}

// CreateAllVariants creates every configured variant for an image.
// Individual variant failures do not abort the remaining ones.
func (p *Processor) CreateAllVariants(sourcePath, uuid, filename string) ([]*VariantResult, error) {
	var results []*VariantResult
	var errs []string

	for variantType, config := range Variants {
		result, err := p.CreateVariant(sourcePath, uuid, filename, config, variantType)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", variantType, err))
			continue
		}
		if result != nil {
			results = append(results, result)
		}
	}

	if len(errs) > 0 && len(results) == 0 {
		return nil, fmt.Errorf("all variants failed: %s", strings.Join(errs, "; "))
	}

	return results, nil
}

// AbsPath resolves a stored relative image path against the upload root.
func (p *Processor) AbsPath(rel string) string {
	return filepath.Join(p.uploadDir, filepath.FromSlash(rel))
}

// DeleteImageFiles removes the original and all variants for an image.
func (p *Processor) DeleteImageFiles(uuid string) error {
	originalsDir := filepath.Join(p.uploadDir, "originals", uuid)
	if err := os.RemoveAll(originalsDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete originals: %w", err)
	}

	for variantType := range Variants {
		variantDir := filepath.Join(p.uploadDir, variantType, uuid)
		if err := os.RemoveAll(variantDir); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete %s variant: %w", variantType, err)
		}
	}

	return nil
}

// IsImage checks if a MIME type represents an image we can process.
func (p *Processor) IsImage(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

// DetectMimeType detects the MIME type of image data.
func (p *Processor) DetectMimeType(data []byte) string {
	contentType := http.DetectContentType(data)
	if idx := strings.Index(contentType, ";"); idx != -1 {
		contentType = contentType[:idx]
	}
	return contentType
}

// saveImageFile writes data under uploadDir/subDir/filename, creating
// directories as needed.
func (p *Processor) saveImageFile(subDir, filename string, data []byte) (string, error) {
	dir := filepath.Join(p.uploadDir, subDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	fullPath := filepath.Join(dir, filename)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	// Return the path relative to the upload root for URL building.
	return filepath.ToSlash(filepath.Join(subDir, filename)), nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies EXIF orientation transformation to an image.
// Orientation values:
// 1: Normal
// 2: Flip horizontal
// 3: Rotate 180°
// 4: Flip vertical
// 5: Rotate 90° CW + flip horizontal
// 6: Rotate 90° CW
// 7: Rotate 90° CCW + flip horizontal
// 8: Rotate 90° CCW
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image with the specified format and quality.
// WebP input is re-encoded as JPEG since pure Go WebP encoding is not
// available.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg", "jpg":
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case "gif":
		if err := gif.Encode(&buf, img, nil); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)

	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return "jpeg"
	case strings.HasPrefix(contentType, "image/png"):
		return "png"
	case strings.HasPrefix(contentType, "image/gif"):
		return "gif"
	case strings.HasPrefix(contentType, "image/webp"):
		return "webp"
	default:
		return ""
	}
}

// formatToMimeType maps a detected format to its MIME type.
func formatToMimeType(format string) string {
	switch format {
	case "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// detectFormatFromFilename determines the output format from the
// file extension.
func detectFormatFromFilename(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	default:
		return "jpeg"
	}
}
