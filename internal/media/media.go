// Package media holds the black-box primitives the ingestion pipeline
// composes: kind classification, preview derivation, and content hashing.
package media

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"photobooth/agent/internal/models"
)

var photoExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".webp": {},
	".heic": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {},
	".mov": {},
	".m4v": {},
	".avi": {},
	".mkv": {},
}

// DetectKind classifies a file by extension. The second return is false
// for unsupported files, which the pipeline silently ignores.
func DetectKind(path string) (models.MediaKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := photoExtensions[ext]; ok {
		return models.MediaKindPhoto, true
	}
	if _, ok := videoExtensions[ext]; ok {
		return models.MediaKindVideo, true
	}
	return "", false
}

const (
	previewMaxSize     = 700
	previewJPEGQuality = 82
)

// GeneratePreview writes a bounded JPEG preview of a photo: auto-oriented,
// scaled to fit inside a 700x700 box without enlargement.
func GeneratePreview(sourcePath, previewPath string) error {
	img, err := imaging.Open(sourcePath, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("open photo: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > previewMaxSize || bounds.Dy() > previewMaxSize {
		img = imaging.Fit(img, previewMaxSize, previewMaxSize, imaging.Lanczos)
	}

	if err := imaging.Save(img, previewPath, imaging.JPEGQuality(previewJPEGQuality)); err != nil {
		return fmt.Errorf("save preview: %w", err)
	}
	return nil
}

// FileSHA1 returns the hex SHA-1 digest of a file's contents.
func FileSHA1(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
