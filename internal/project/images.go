package project

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/typeid"
)

// MaxImageBytes caps a single upload.
const MaxImageBytes = 32 << 20

// sniffLen is how much of a file filetype needs to recognize it.
const sniffLen = 262

// ProbeImage returns the pixel size of an image file without decoding the
// pixels.
func ProbeImage(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(f, head)
	if !filetype.IsImage(head[:n]) {
		return 0, 0, ErrNotImage
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, 0, err
	}
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	return cfg.Width, cfg.Height, nil
}

// backfillDimensions fills in missing original sizes from the image files.
// Files that cannot be probed keep zero dimensions and are logged.
func (s *Store) backfillDimensions(name string, doc *document.Project) {
	for i := range doc.Images {
		img := &doc.Images[i]
		if img.HasDimensions() || img.Path == "" {
			continue
		}
		w, h, err := ProbeImage(s.ImagePath(name, img.Path))
		if err != nil {
			slog.Warn("cannot read image dimensions", "project", name, "path", img.Path, "error", err)
			continue
		}
		img.OriginalWidth, img.OriginalHeight = w, h
	}
}

// AddImage stores an uploaded image in the project's images folder and
// returns a config for it with probed dimensions. The file name is reduced
// to its base name and made unique.
func (s *Store) AddImage(name, filename string, r io.Reader) (document.ImageConfig, error) {
	if err := ValidateName(name); err != nil {
		return document.ImageConfig{}, err
	}
	data, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return document.ImageConfig{}, opError("add image", filename, ErrIO, err)
	}
	if len(data) > MaxImageBytes {
		return document.ImageConfig{}, opError("add image", filename, ErrNotImage, errors.New("file too large"))
	}
	kind, err := filetype.Image(data)
	if err != nil || kind == filetype.Unknown {
		return document.ImageConfig{}, opError("add image", filename, ErrNotImage, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return document.ImageConfig{}, opError("add image", filename, ErrNotImage, err)
	}

	dir := s.ImagesDir(name)
	if _, err := os.Stat(s.Dir(name)); err != nil {
		return document.ImageConfig{}, opError("add image", s.Dir(name), ErrNotFound, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return document.ImageConfig{}, opError("add image", dir, ErrIO, err)
	}

	base := sanitizeFilename(filename, kind.Extension)
	final := uniqueName(dir, base)
	if err := os.WriteFile(filepath.Join(dir, final), data, 0o644); err != nil {
		return document.ImageConfig{}, opError("add image", final, ErrIO, err)
	}

	slog.Info("image added", "project", name, "path", final, "width", cfg.Width, "height", cfg.Height)
	return document.ImageConfig{
		ID:             typeid.NewImageID(),
		Path:           final,
		Scale:          1,
		OriginalWidth:  cfg.Width,
		OriginalHeight: cfg.Height,
	}, nil
}

// RemoveImage deletes an image file. A file that is already gone is not an
// error.
func (s *Store) RemoveImage(name, path string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	p := s.ImagePath(name, filepath.Base(path))
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opError("remove image", p, ErrIO, err)
	}
	return nil
}

func sanitizeFilename(filename, ext string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	if base == "." || base == "/" || strings.HasPrefix(base, ".") {
		base = "image"
	}
	if filepath.Ext(base) == "" && ext != "" {
		base += "." + ext
	}
	return base
}

func uniqueName(dir, base string) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := base
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(dir, name)); errors.Is(err, fs.ErrNotExist) {
			return name
		}
		name = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}
