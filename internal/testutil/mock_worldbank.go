// Package testutil provides testing utilities for the indicator pipeline.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior of one scripted page response.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockWorldBank is a configurable mock World Bank API server. Responses are
// scripted per (country, indicator, page); unscripted pages return an empty
// single-page envelope.
type MockWorldBank struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[string]MockResponse

	// Tracking
	RequestCount      int
	PageRequests      map[string]int
	LastRequestHeader http.Header
}

// NewMockWorldBank creates a new mock API server.
func NewMockWorldBank() *MockWorldBank {
	mock := &MockWorldBank{
		responses:    make(map[string]MockResponse),
		PageRequests: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := pageKey(r.URL.Path, r.URL.Query().Get("page"))

		mock.mu.Lock()
		mock.RequestCount++
		mock.PageRequests[key]++
		mock.LastRequestHeader = r.Header.Clone()
		resp, scripted := mock.responses[key]
		mock.mu.Unlock()

		if !scripted {
			resp = MockResponse{StatusCode: http.StatusOK, Body: EmptyPageBody()}
		}

		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	}))

	return mock
}

// pageKey identifies one page of one (country, indicator) pair. An absent
// page parameter counts as page 1.
func pageKey(path, page string) string {
	if page == "" {
		page = "1"
	}
	return path + "?page=" + page
}

// URL returns the mock server URL.
func (m *MockWorldBank) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockWorldBank) Close() {
	m.server.Close()
}

// Reset clears scripted responses and tracking counters.
func (m *MockWorldBank) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = make(map[string]MockResponse)
	m.PageRequests = make(map[string]int)
	m.RequestCount = 0
	m.LastRequestHeader = nil
}

// SetPage scripts the response for one page of a (country, indicator) pair.
func (m *MockWorldBank) SetPage(country, indicatorCode string, page int, resp MockResponse) {
	key := pageKey(fmt.Sprintf("/country/%s/indicator/%s", country, indicatorCode),
		fmt.Sprintf("%d", page))
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[key] = resp
}

// GetRequestCount returns the total number of requests served.
func (m *MockWorldBank) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPageRequests returns how often one page of a pair was requested.
func (m *MockWorldBank) GetPageRequests(country, indicatorCode string, page int) int {
	key := pageKey(fmt.Sprintf("/country/%s/indicator/%s", country, indicatorCode),
		fmt.Sprintf("%d", page))
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[key]
}

// PageBody builds a valid two-element page envelope around a JSON records
// array.
func PageBody(page, pages, total int, records string) string {
	return fmt.Sprintf(`[{"page":%d,"pages":%d,"per_page":1000,"total":%d},%s]`,
		page, pages, total, records)
}

// EmptyPageBody builds a valid envelope declaring one page with no records.
func EmptyPageBody() string {
	return PageBody(1, 1, 0, "[]")
}

// Record builds one raw record JSON object. Pass value as e.g. "3.14" or
// "null".
func Record(iso3, name, indicatorID, indicatorName, year, value string) string {
	return fmt.Sprintf(`{"indicator":{"id":%q,"value":%q},"country":{"id":%q,"value":%q},"countryiso3code":%q,"date":%q,"value":%s,"unit":"","obs_status":"","decimal":1}`,
		indicatorID, indicatorName, iso3, name, iso3, year, value)
}

// ErrorBody builds the API's one-element error envelope.
func ErrorBody(message string) string {
	return fmt.Sprintf(`[{"message":[{"id":"120","key":"Invalid value","value":%q}]}]`, message)
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
	}
}
