package worldbank

import (
	"errors"
	"testing"
)

func TestParsePage(t *testing.T) {
	body := []byte(`[
		{"page":1,"pages":2,"per_page":1000,"total":48},
		[
			{"indicator":{"id":"NY.GDP.MKTP.KD.ZG","value":"GDP growth (annual %)"},
			 "country":{"id":"KE","value":"Kenya"},
			 "countryiso3code":"KEN","date":"2022","value":4.8456,
			 "unit":"","obs_status":"","decimal":1},
			{"indicator":{"id":"NY.GDP.MKTP.KD.ZG","value":"GDP growth (annual %)"},
			 "country":{"id":"KE","value":"Kenya"},
			 "countryiso3code":"KEN","date":"2021","value":null,
			 "unit":"","obs_status":"","decimal":1}
		]
	]`)

	page, err := parsePage(body)
	if err != nil {
		t.Fatalf("parsePage() error = %v, want nil", err)
	}

	if page.Meta.Pages != 2 {
		t.Errorf("Meta.Pages = %d, want 2", page.Meta.Pages)
	}
	if page.Meta.Total != 48 {
		t.Errorf("Meta.Total = %d, want 48", page.Meta.Total)
	}
	if len(page.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(page.Records))
	}

	first := page.Records[0]
	if first.CountryISO3Code != "KEN" {
		t.Errorf("CountryISO3Code = %q, want KEN", first.CountryISO3Code)
	}
	if first.Country == nil || first.Country.Value != "Kenya" {
		t.Errorf("Country = %+v, want value Kenya", first.Country)
	}
	if first.Value == nil || *first.Value != 4.8456 {
		t.Errorf("Value = %v, want 4.8456", first.Value)
	}

	// Null values survive decoding as nil, not zero.
	if page.Records[1].Value != nil {
		t.Errorf("Records[1].Value = %v, want nil", *page.Records[1].Value)
	}
}

func TestParsePage_NullRecords(t *testing.T) {
	page, err := parsePage([]byte(`[{"page":1,"pages":1,"per_page":1000,"total":0},null]`))
	if err != nil {
		t.Fatalf("parsePage() error = %v, want nil", err)
	}
	if len(page.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(page.Records))
	}
}

func TestParsePage_ShortEnvelope(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"error payload", `[{"message":[{"id":"120","key":"Invalid value","value":"bad indicator"}]}]`},
		{"empty array", `[]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePage([]byte(tt.body))
			if !errors.Is(err, ErrShortResponse) {
				t.Errorf("parsePage() error = %v, want ErrShortResponse", err)
			}
		})
	}
}

func TestParsePage_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>Service Unavailable</html>`},
		{"not an array", `{"page":1}`},
		{"bad metadata", `[[1,2],[]]`},
		{"bad records", `[{"page":1,"pages":1},{"oops":true}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parsePage([]byte(tt.body))
			if err == nil {
				t.Error("parsePage() error = nil, want decode error")
			}
			if errors.Is(err, ErrShortResponse) {
				t.Error("parsePage() returned ErrShortResponse for malformed body")
			}
		})
	}
}
