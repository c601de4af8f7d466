package source

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
)

// SupportedImageExtensions lists the file extensions a source can replay.
var SupportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// LoadImage opens and decodes an image file.
func LoadImage(path string) (image.Image, error) {
	if path == "" {
		return nil, &FrameError{Op: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		return nil, &FrameError{Op: "load", Path: path, Err: fmt.Errorf("unsupported format: %s", filepath.Ext(path))}
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, &FrameError{Op: "decode", Path: path, Err: err}
	}
	return img, nil
}

// ProbeDimensions reads the image header without decoding pixels.
func ProbeDimensions(path string) (int, int, error) {
	f, err := os.Open(path) //nolint:gosec // G304: replaying user-selected image files is the point
	if err != nil {
		return 0, 0, &FrameError{Op: "probe", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, &FrameError{Op: "probe", Path: path, Err: err}
	}
	return cfg.Width, cfg.Height, nil
}

// ListImages returns the supported images directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &FrameError{Op: "list", Path: dir, Err: err}
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedImage(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
