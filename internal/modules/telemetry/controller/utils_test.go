package controller

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func Test_parseReadingsQuery(t *testing.T) {
	t.Run("defaults to the last 24 hours with limit 100", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/station/readings", nil)
		from, to, limit, err := parseReadingsQuery(req)
		if err != nil {
			t.Fatalf("parseReadingsQuery: %v", err)
		}
		if limit != 100 {
			t.Errorf("limit = %d, want 100", limit)
		}
		if got := to.Sub(from); got != 24*time.Hour {
			t.Errorf("window = %v, want 24h", got)
		}
	})

	t.Run("explicit range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/station/readings?from=2026-08-25T00:00:00Z&to=2026-08-25T06:00:00Z&limit=50", nil)
		from, to, limit, err := parseReadingsQuery(req)
		if err != nil {
			t.Fatalf("parseReadingsQuery: %v", err)
		}
		if limit != 50 {
			t.Errorf("limit = %d, want 50", limit)
		}
		if !from.Before(to) {
			t.Errorf("from %v not before to %v", from, to)
		}
	})

	tests := []struct {
		name  string
		query string
	}{
		{name: "bad from", query: "from=yesterday"},
		{name: "bad to", query: "to=later"},
		{name: "from after to", query: "from=2026-08-25T06:00:00Z&to=2026-08-25T00:00:00Z"},
		{name: "non-integer limit", query: "limit=ten"},
		{name: "zero limit", query: "limit=0"},
		{name: "negative limit", query: "limit=-5"},
		{name: "limit too large", query: "limit=1001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/station/readings?"+tt.query, nil)
			if _, _, _, err := parseReadingsQuery(req); err == nil {
				t.Error("want error, got nil")
			}
		})
	}
}
