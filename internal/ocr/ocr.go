package ocr

import "context"

// TextDetector defines the interface for extracting text from an image
type TextDetector interface {
	// DetectText runs document text detection on the raw image bytes.
	// An image with no readable text yields an empty string, not an
	// error.
	DetectText(ctx context.Context, image []byte) (string, error)
	// Close closes the detector and releases resources
	Close() error
}
