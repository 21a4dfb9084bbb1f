package worldbank

import (
	"encoding/json"
	"fmt"
)

// Ref is a World Bank id/value pair, used for nested country and indicator
// references inside a record.
type Ref struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// RawRecord is one data point exactly as the API returns it. Any field may
// be absent or null; consumers must check presence before use.
type RawRecord struct {
	Indicator       *Ref     `json:"indicator"`
	Country         *Ref     `json:"country"`
	CountryISO3Code string   `json:"countryiso3code"`
	Date            string   `json:"date"`
	Value           *float64 `json:"value"`
	Unit            string   `json:"unit"`
	ObsStatus       string   `json:"obs_status"`
	Decimal         int      `json:"decimal"`
}

// PageMeta is the metadata element of a response page.
type PageMeta struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// Page is one decoded response: the metadata element plus the data element.
type Page struct {
	Meta    PageMeta
	Records []RawRecord
}

// parsePage decodes the API's two-element envelope [metadata, records].
// Error payloads and truncated responses have fewer than two elements and
// yield ErrShortResponse.
func parsePage(body []byte) (*Page, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, fmt.Errorf("decode response envelope: %w", err)
	}
	if len(elements) < 2 {
		return nil, ErrShortResponse
	}

	var page Page
	if err := json.Unmarshal(elements[0], &page.Meta); err != nil {
		return nil, fmt.Errorf("decode page metadata: %w", err)
	}
	// The data element is null when an indicator has no records.
	if err := json.Unmarshal(elements[1], &page.Records); err != nil {
		return nil, fmt.Errorf("decode page records: %w", err)
	}
	return &page, nil
}
