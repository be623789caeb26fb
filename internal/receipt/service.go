package receipt

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ShelfLife2025/receipt-ai-backend/internal/extraction"
	"github.com/ShelfLife2025/receipt-ai-backend/internal/ocr"
)

// Service runs the receipt parsing pipeline: OCR, then item
// extraction. Both stages call out to external services; a failure of
// either fails the whole request, there are no local retries.
type Service struct {
	detector  ocr.TextDetector
	extractor extraction.Extractor
}

// NewService creates a new Service
func NewService(detector ocr.TextDetector, extractor extraction.Extractor) *Service {
	return &Service{
		detector:  detector,
		extractor: extractor,
	}
}

// ParseImage extracts the purchased items from a receipt image. The
// image bytes are forwarded to the OCR stage exactly as uploaded.
// Extraction error kinds (extraction.ErrNoItems, *FormatError,
// *ValidationError) are wrapped, not replaced, so the HTTP layer can
// map them to status codes.
func (s *Service) ParseImage(ctx context.Context, image []byte) ([]extraction.Item, error) {
	text, err := s.detector.DetectText(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("detecting receipt text: %w", err)
	}

	slog.Debug("OCR complete", "text_length", len(text))

	items, err := s.extractor.ExtractItems(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extracting items: %w", err)
	}

	return items, nil
}
