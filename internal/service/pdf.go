package service

import (
	"context"
	"os"
	"path/filepath"

	"github.com/opencaselaw/cite/internal/model"
)

// FilesystemPDFSource serves volume PDFs from a directory, keyed by the
// pdf_path stored on the volume record.
type FilesystemPDFSource struct {
	dir string
}

// NewFilesystemPDFSource creates a PDF source rooted at dir.
func NewFilesystemPDFSource(dir string) *FilesystemPDFSource {
	return &FilesystemPDFSource{dir: dir}
}

// Get returns the volume PDF bytes, or ErrPDFUnavailable when the volume
// has no PDF or the file cannot be read.
func (s *FilesystemPDFSource) Get(_ context.Context, kase *model.Case) ([]byte, error) {
	if !kase.Volume.PDFPath.Valid || kase.Volume.PDFPath.String == "" {
		return nil, ErrPDFUnavailable
	}

	// The stored path is relative to the PDF directory; reject anything
	// that escapes it.
	rel := filepath.Clean(kase.Volume.PDFPath.String)
	if rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
		return nil, ErrPDFUnavailable
	}

	bytes, err := os.ReadFile(filepath.Join(s.dir, rel))
	if err != nil {
		return nil, ErrPDFUnavailable
	}
	return bytes, nil
}
