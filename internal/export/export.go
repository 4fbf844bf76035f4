package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inamate/infomap/internal/document"
	"github.com/inamate/infomap/internal/project"
)

var (
	ErrCreateDir = errors.New("cannot create output directory")
	ErrWrite     = errors.New("cannot write export file")
)

// ExportHTML writes the page for doc to outPath and copies every referenced
// image from imagesDir into an images folder beside it. Images that cannot
// be copied are logged and skipped.
func ExportHTML(doc *document.Project, imagesDir, outPath string) error {
	page, err := RenderHTML(doc, Options{})
	if err != nil {
		return err
	}

	outDir := filepath.Dir(outPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("%w %s: %w", ErrCreateDir, outDir, err)
	}
	if err := os.WriteFile(outPath, []byte(page), 0o644); err != nil {
		return fmt.Errorf("%w %s: %w", ErrWrite, outPath, err)
	}

	copied := copyImages(doc, imagesDir, filepath.Join(outDir, ImagesFolder))
	slog.Info("export complete", "path", outPath, "images", copied)
	return nil
}

func copyImages(doc *document.Project, from, to string) int {
	copied := 0
	seen := make(map[string]bool)
	for _, img := range doc.Images {
		name := filepath.Base(img.Path)
		if img.Path == "" || seen[name] {
			continue
		}
		seen[name] = true
		src := filepath.Join(from, name)
		if _, err := os.Stat(src); err != nil {
			slog.Warn("image missing, skipped", "path", src, "error", err)
			continue
		}
		if err := project.CopyFile(src, filepath.Join(to, name)); err != nil {
			slog.Warn("copy image failed", "path", src, "error", err)
			continue
		}
		copied++
	}
	return copied
}
