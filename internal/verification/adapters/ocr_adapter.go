package adapters

import (
	"context"

	"docverify/internal/evidence/ocr"
	"docverify/internal/verification/ports"
)

// OCRAdapter implements ports.TextExtractor on top of the OCR extractor.
type OCRAdapter struct {
	extractor *ocr.Extractor
}

func NewOCRAdapter(extractor *ocr.Extractor) ports.TextExtractor {
	return &OCRAdapter{extractor: extractor}
}

func (a *OCRAdapter) Extract(ctx context.Context, documentPath string) ports.Extraction {
	res := a.extractor.Extract(ctx, documentPath)
	return ports.Extraction{
		Success: res.Success,
		Text:    res.Text,
		Error:   res.Error,
	}
}
