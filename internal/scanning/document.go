package scanning

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageSource is an ordered sequence of scannable pages. Pages are numbered
// from 1; page 1 is the report cover.
type PageSource interface {
	// PageCount returns the total number of pages, cover included
	PageCount() int
	// Render returns the raster image of one page at the given resolution
	Render(page int, dpi float64) (image.Image, error)
	// Close releases the underlying resources
	Close() error
}

// OpenSource opens path as a page source: a PDF report, or a directory of
// page scan images.
func OpenSource(path string) (PageSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stating source: %w", err)
	}
	if info.IsDir() {
		return OpenImageDir(path)
	}
	return OpenPDF(path)
}

// PDFDocument is a PageSource backed by a PDF file
type PDFDocument struct {
	doc       *fitz.Document
	pages     int
	optimized string
}

// OpenPDF prepares a PDF report for rendering. The file is first rewritten
// through pdfcpu in relaxed validation mode, since scanned reports are
// frequently slightly malformed, and the page count is taken from the
// rewritten copy.
func OpenPDF(path string) (*PDFDocument, error) {
	tmp, err := os.CreateTemp("", "debtscan-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp file: %w", err)
	}
	tmp.Close()

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if err := api.OptimizeFile(path, tmp.Name(), cfg); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("optimizing PDF: %w", err)
	}

	pages, err := api.PageCountFile(tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	doc, err := fitz.New(tmp.Name())
	if err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("opening PDF: %w", err)
	}

	return &PDFDocument{
		doc:       doc,
		pages:     pages,
		optimized: tmp.Name(),
	}, nil
}

// PageCount returns the total number of pages
func (d *PDFDocument) PageCount() int {
	return d.pages
}

// Render rasterizes one page at the given resolution
func (d *PDFDocument) Render(page int, dpi float64) (image.Image, error) {
	if page < 1 || page > d.pages {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, d.pages)
	}

	// go-fitz counts pages from 0
	img, err := d.doc.ImageDPI(page-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("rendering page %d: %w", page, err)
	}

	return img, nil
}

// Close closes the document and removes the optimized copy
func (d *PDFDocument) Close() error {
	err := d.doc.Close()
	if rmErr := os.Remove(d.optimized); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// pageImageExts lists the file extensions picked up in image-directory mode
var pageImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".heic": true,
	".heif": true,
}

// ImageDir is a PageSource backed by a directory of page scans, one image
// file per page, ordered by file name. The first file plays the cover.
type ImageDir struct {
	files []string
}

// OpenImageDir collects the page images of dir
func OpenImageDir(dir string) (*ImageDir, error) {
	// os.ReadDir returns entries sorted by name, which fixes the page order
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if pageImageExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no page images in %s", dir)
	}

	return &ImageDir{files: files}, nil
}

// PageCount returns the number of page images found
func (d *ImageDir) PageCount() int {
	return len(d.files)
}

// Render decodes one page image. The scan resolution is baked into the
// file, so dpi is ignored here.
func (d *ImageDir) Render(page int, _ float64) (image.Image, error) {
	if page < 1 || page > len(d.files) {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, len(d.files))
	}

	data, err := os.ReadFile(d.files[page-1])
	if err != nil {
		return nil, fmt.Errorf("reading page image: %w", err)
	}

	img, err := decodePageImage(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(d.files[page-1]), err)
	}

	return img, nil
}

// Close is a no-op for an image directory
func (d *ImageDir) Close() error {
	return nil
}
