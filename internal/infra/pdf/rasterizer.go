package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
)

const (
	// renderDPI fixes the rasterization scale at 2.0× the 72 DPI PDF
	// baseline: enough detail for the extraction model without blowing
	// up the request payload.
	renderDPI = 144

	// jpegQuality applies to every encoded page; all pages come out as
	// JPEG regardless of the source page content.
	jpegQuality = 85
)

// Rasterizer renders PDF pages to JPEG page images using go-fitz (MuPDF).
type Rasterizer struct{}

func NewRasterizer() *Rasterizer {
	return &Rasterizer{}
}

// Render converts every page of the document, in document order. A failure
// on any page aborts the whole run; partial page sets are never returned.
func (r *Rasterizer) Render(ctx context.Context, name string, data []byte) ([]domain.PageImage, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPDFParse, err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", domain.ErrPDFParse)
	}

	pages := make([]domain.PageImage, 0, pageCount)
	var buf bytes.Buffer
	for n := 0; n < pageCount; n++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		img, err := doc.ImageDPI(n, renderDPI)
		if err != nil {
			return nil, fmt.Errorf("%w: render page %d: %v", domain.ErrPDFParse, n+1, err)
		}

		buf.Reset()
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, fmt.Errorf("%w: encode page %d: %v", domain.ErrPDFParse, n+1, err)
		}
		pages = append(pages, domain.NewPageImage(name, "image/jpeg", buf.Bytes()))
	}
	return pages, nil
}
