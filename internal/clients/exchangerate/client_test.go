package exchangerate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmorneau/maple/internal/models"
)

func TestGetRates_ParsesResponse(t *testing.T) {
	var capturedPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"base": "CAD",
			"date": "2026-08-28",
			"rates": {"CAD": 1, "USD": 0.73, "EUR": 0.68, "GBP": 0.58, "JPY": 109.2}
		}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	rates, err := client.GetRates(context.Background(), models.CurrencyCAD)
	if err != nil {
		t.Fatalf("GetRates failed: %v", err)
	}

	if capturedPath != "/latest/CAD" {
		t.Errorf("expected path /latest/CAD, got %s", capturedPath)
	}
	// Only supported currencies survive
	if len(rates) != 3 {
		t.Errorf("expected 3 rates, got %d: %v", len(rates), rates)
	}
	if rates[models.CurrencyUSD] != 0.73 {
		t.Errorf("expected USD rate 0.73, got %v", rates[models.CurrencyUSD])
	}
	if rates[models.CurrencyCAD] != 1 {
		t.Errorf("expected CAD rate 1, got %v", rates[models.CurrencyCAD])
	}
}

func TestGetRates_BaseAlwaysIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"base": "CAD", "rates": {"USD": 0.73}}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	rates, err := client.GetRates(context.Background(), models.CurrencyCAD)
	if err != nil {
		t.Fatalf("GetRates failed: %v", err)
	}
	if rates[models.CurrencyCAD] != 1 {
		t.Errorf("expected injected CAD identity rate, got %v", rates[models.CurrencyCAD])
	}
}

func TestGetRates_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetRates(context.Background(), models.CurrencyCAD)
	if err == nil {
		t.Fatal("expected error on 503 response")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", apiErr.StatusCode)
	}
}
