// Package util - Filesystem helpers for batch censoring.
package util

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/nvr-ai/go-censor/images"
	"github.com/pkg/errors"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Image holds the raw bytes and the format inferred from the extension.
	Image images.Image
	// Frame is the number in a frame-N style name, or -1 when there is none.
	Frame int
}

// Name returns the base name of the file without its extension.
func (f ImageFile) Name() string {
	base := filepath.Base(f.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDirectoryImageFiles reads all image files from a directory.
//
// Files are recognised by extension. Numbered frames (frame-12.png) sort by
// number ahead of everything else, and the rest sort by name.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		format, ok := images.FormatFromPath(file.Name())
		if !ok {
			continue
		}

		imgPath := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", imgPath)
		}
		out = append(out, ImageFile{
			Path:  imgPath,
			Image: images.Image{Format: format, Data: data},
			Frame: frameNumber(file.Name()),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.Frame >= 0) != (b.Frame >= 0) {
			return a.Frame >= 0
		}
		if a.Frame != b.Frame {
			return a.Frame < b.Frame
		}
		return a.Path < b.Path
	})

	return out, nil
}

// OutputPath returns where the censored copy of f is written inside dir,
// keeping the base name and using the extension of the encoded format.
func OutputPath(dir string, f ImageFile, format images.Format) string {
	return filepath.Join(dir, f.Name()+images.Extension(format))
}

func frameNumber(name string) int {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasPrefix(stem, "frame-") {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(stem, "frame-"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}
