package worldbank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Teekay7000/data-engineering-pipeline/internal/testutil"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(Config{
		BaseURL:   baseURL,
		UserAgent: "wb-pipeline-test/1.0",
		Timeout:   5 * time.Second,
		PerPage:   1000,
		StartYear: 2000,
		EndYear:   2023,
		Retry:     testRetryConfig(3),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing base URL", Config{UserAgent: "x"}},
		{"missing user agent", Config{BaseURL: "https://api.worldbank.org/v2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("New() error = nil, want validation error")
			}
		})
	}
}

func TestPageURL(t *testing.T) {
	client := testClient(t, "https://api.worldbank.org/v2")

	got := client.PageURL("KEN", "NY.GDP.MKTP.KD.ZG", 2)
	wantParts := []string{
		"https://api.worldbank.org/v2/country/KEN/indicator/NY.GDP.MKTP.KD.ZG?",
		"format=json",
		"per_page=1000",
		"date=2000%3A2023",
		"page=2",
	}
	for _, part := range wantParts {
		if !strings.Contains(got, part) {
			t.Errorf("PageURL() = %q, want it to contain %q", got, part)
		}
	}
}

func TestFetchPage_Success(t *testing.T) {
	mock := testutil.NewMockWorldBank()
	defer mock.Close()

	records := "[" + testutil.Record("KEN", "Kenya", "NY.GDP.MKTP.KD.ZG", "GDP growth (annual %)", "2022", "4.8456") + "]"
	mock.SetPage("KEN", "NY.GDP.MKTP.KD.ZG", 1, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.PageBody(1, 1, 1, records),
	})

	client := testClient(t, mock.URL())

	page, err := client.FetchPage(context.Background(), "KEN", "NY.GDP.MKTP.KD.ZG", 1)
	if err != nil {
		t.Fatalf("FetchPage() error = %v, want nil", err)
	}
	if len(page.Records) != 1 {
		t.Fatalf("len(Records) = %d, want 1", len(page.Records))
	}
	if page.Records[0].Date != "2022" {
		t.Errorf("Date = %q, want 2022", page.Records[0].Date)
	}

	// Identifying header is set on every request.
	if got := mock.LastRequestHeader.Get("User-Agent"); got != "wb-pipeline-test/1.0" {
		t.Errorf("User-Agent = %q, want wb-pipeline-test/1.0", got)
	}
}

func TestFetchPage_RetryExhaustion(t *testing.T) {
	mock := testutil.NewMockWorldBank()
	defer mock.Close()

	mock.SetPage("KEN", "NY.GDP.MKTP.KD.ZG", 1, testutil.NewServerErrorResponse())

	client := testClient(t, mock.URL())

	_, err := client.FetchPage(context.Background(), "KEN", "NY.GDP.MKTP.KD.ZG", 1)
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("FetchPage() error = %v, want ErrRetryExhausted", err)
	}
	if got := mock.GetRequestCount(); got != 3 {
		t.Errorf("Request count = %d, want exactly 3 attempts", got)
	}
}

func TestFetchPage_RecoversAfterTransientFailure(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(testutil.PageBody(1, 1, 0, "[]")))
	}))
	defer server.Close()

	client := testClient(t, server.URL)

	page, err := client.FetchPage(context.Background(), "KEN", "SL.UEM.TOTL.ZS", 1)
	if err != nil {
		t.Fatalf("FetchPage() error = %v, want nil after recovery", err)
	}
	if len(page.Records) != 0 {
		t.Errorf("len(Records) = %d, want 0", len(page.Records))
	}
	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Errorf("Attempts = %d, want 2", got)
	}
}

func TestFetchPage_ShortEnvelope(t *testing.T) {
	mock := testutil.NewMockWorldBank()
	defer mock.Close()

	mock.SetPage("KEN", "BAD.CODE", 1, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       testutil.ErrorBody("bad indicator"),
	})

	client := testClient(t, mock.URL())

	_, err := client.FetchPage(context.Background(), "KEN", "BAD.CODE", 1)
	if !errors.Is(err, ErrShortResponse) {
		t.Errorf("FetchPage() error = %v, want ErrShortResponse", err)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("Request count = %d, want 1 (short envelopes are not retried)", got)
	}
}
