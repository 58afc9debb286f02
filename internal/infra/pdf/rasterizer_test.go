package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"testing"

	domain "github.com/xayrullaevziyovuddin/decoding-the-analyses/internal/domain/analysis"
)

// buildPDF assembles a minimal valid PDF with the given number of empty
// pages, computing the xref offsets as it goes.
func buildPDF(pages int) []byte {
	var buf bytes.Buffer
	var offsets []int

	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := ""
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}

	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 100] >>\nendobj\n", 3+i))
	}

	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefStart)

	return buf.Bytes()
}

func TestRenderPageCountAndOrder(t *testing.T) {
	r := NewRasterizer()

	for _, pages := range []int{1, 3} {
		got, err := r.Render(context.Background(), "report.pdf", buildPDF(pages))
		if err != nil {
			t.Fatalf("Render %d pages failed: %v", pages, err)
		}
		if len(got) != pages {
			t.Fatalf("expected %d page images, got %d", pages, len(got))
		}
		for i, p := range got {
			if p.MIMEType != "image/jpeg" {
				t.Errorf("page %d: mime %q", i+1, p.MIMEType)
			}
			if p.Name != "report.pdf" {
				t.Errorf("page %d: name %q", i+1, p.Name)
			}
			raw, err := p.Bytes()
			if err != nil {
				t.Fatalf("page %d: decode payload: %v", i+1, err)
			}
			// every page comes out as a decodable JPEG at the fixed scale
			img, err := jpeg.Decode(bytes.NewReader(raw))
			if err != nil {
				t.Fatalf("page %d: not a jpeg: %v", i+1, err)
			}
			// 200x100pt at 144 DPI → 400x200px
			if w := img.Bounds().Dx(); w < 390 || w > 410 {
				t.Errorf("page %d: unexpected width %d", i+1, w)
			}
		}
	}
}

func TestRenderMalformedPDF(t *testing.T) {
	r := NewRasterizer()

	for _, data := range [][]byte{nil, []byte("not a pdf"), []byte("%PDF-1.4 truncated")} {
		_, err := r.Render(context.Background(), "bad.pdf", data)
		if !errors.Is(err, domain.ErrPDFParse) {
			t.Errorf("expected ErrPDFParse for %q, got %v", data, err)
		}
	}
}

func TestRenderCancelled(t *testing.T) {
	r := NewRasterizer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Render(ctx, "report.pdf", buildPDF(2)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
