package extraction

import "context"

// Item categories accepted from the language model.
const (
	CategoryFood      = "Food"
	CategoryHousehold = "Household"
)

// Item is one purchased line item extracted from a receipt
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"` // Food | Household
}

// Extractor defines the interface for turning OCR text into items
type Extractor interface {
	// ExtractItems asks the language model to convert raw receipt text
	// into a validated item list
	ExtractItems(ctx context.Context, ocrText string) ([]Item, error)
	// Close closes the extractor and releases resources
	Close() error
}
