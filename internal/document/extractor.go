package document

import (
	"bytes"
	"context"
	"fmt"

	"github.com/nikhilbhutani/docvision/pkg/textextract"
)

// PDFExtractor pulls the embedded text out of a PDF held in memory.
type PDFExtractor interface {
	ExtractPDF(ctx context.Context, data []byte) (*textextract.ExtractedText, error)
}

type pdfExtractor struct{}

func NewPDFExtractor() PDFExtractor {
	return pdfExtractor{}
}

func (pdfExtractor) ExtractPDF(ctx context.Context, data []byte) (*textextract.ExtractedText, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := textextract.PDF(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	return result, nil
}

// PDFExtractorFunc adapts a plain function to PDFExtractor.
type PDFExtractorFunc func(ctx context.Context, data []byte) (*textextract.ExtractedText, error)

func (f PDFExtractorFunc) ExtractPDF(ctx context.Context, data []byte) (*textextract.ExtractedText, error) {
	return f(ctx, data)
}
