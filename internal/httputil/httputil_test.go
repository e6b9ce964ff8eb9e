package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntParam(t *testing.T) {
	assert.Equal(t, 7, ParseIntParam("7", 1))
	assert.Equal(t, 1, ParseIntParam("", 1))
	assert.Equal(t, 1, ParseIntParam("seven", 1))
	assert.Equal(t, -3, ParseIntParam("-3", 1))
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "", 1, 50},
		{"explicit", "?page=3&limit=20", 3, 20},
		{"limit capped", "?limit=500", 1, 100},
		{"page floor", "?page=0", 1, 50},
		{"negative limit resets", "?limit=-5", 1, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/cases"+tt.query, nil)
			p := ParsePagination(r, 50, 100)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, 404, "not_found", "case not found")

	assert.Equal(t, 404, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":{"code":"not_found","message":"case not found"}}`, rec.Body.String())
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1:4321", GetClientIP(r))

	r.Header.Set("X-Real-IP", "203.0.113.9")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
	assert.Equal(t, "198.51.100.7", GetClientIP(r))
}
