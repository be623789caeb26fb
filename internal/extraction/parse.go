package extraction

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// rawItem is the wire shape of one element in the model's JSON array,
// before validation.
type rawItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Category string `json:"category"`
}

func (r rawItem) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Quantity < 1 {
		return fmt.Errorf("quantity must be a positive integer, got %d", r.Quantity)
	}
	if r.Category != CategoryFood && r.Category != CategoryHousehold {
		return fmt.Errorf("category must be %q or %q, got %q", CategoryFood, CategoryHousehold, r.Category)
	}
	return nil
}

// ParseCompletion decodes and validates the model's response content.
// It first attempts to decode the full content as a JSON array; if
// that fails it falls back to the substring between the first '[' and
// the last ']', which tolerates models that wrap the array in prose
// or markdown fences. The fallback is best-effort: content with a
// stray bracket before the intended array will be mis-sliced.
func ParseCompletion(content string) ([]Item, error) {
	raw, err := decodeItemArray(content)
	if err != nil {
		return nil, &FormatError{Detail: err.Error()}
	}

	if len(raw) == 0 {
		return nil, ErrNoItems
	}

	items := make([]Item, 0, len(raw))
	for i, r := range raw {
		if err := r.validate(); err != nil {
			return nil, &ValidationError{Detail: fmt.Sprintf("item %d: %v", i, err)}
		}
		items = append(items, Item{
			Name:     r.Name,
			Quantity: r.Quantity,
			Category: r.Category,
		})
	}

	return items, nil
}

// decodeItemArray extracts a JSON item array from the response content
func decodeItemArray(content string) ([]rawItem, error) {
	content = strings.TrimSpace(content)

	// Only a literal array qualifies for direct decoding; "null" also
	// unmarshals cleanly into a slice and must not pass as no-items
	var raw []rawItem
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &raw); err == nil {
			return raw, nil
		}
	}

	// Find the JSON array boundaries - look for first [ and last ]
	startIdx := strings.Index(content, "[")
	if startIdx == -1 {
		return nil, errors.New("no JSON array found in response")
	}

	endIdx := strings.LastIndex(content, "]")
	if endIdx == -1 || endIdx < startIdx {
		return nil, errors.New("invalid JSON array in response")
	}

	if err := json.Unmarshal([]byte(content[startIdx:endIdx+1]), &raw); err != nil {
		return nil, fmt.Errorf("decoding extracted array: %w", err)
	}

	return raw, nil
}
