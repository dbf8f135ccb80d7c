package http

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestBodyParserJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/",
		strings.NewReader(`{"name": "Pat", "amount": 12.5, "count": 3, "active": true}`))
	req.Header.Set("Content-Type", "application/json")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.IsJSON() {
		t.Fatal("expected JSON detection")
	}
	if got := p.Get("name"); got != "Pat" {
		t.Fatalf("name = %q", got)
	}
	if got := p.Get("amount"); got != "12.5" {
		t.Fatalf("amount = %q", got)
	}
	if got := p.Get("count"); got != "3" {
		t.Fatalf("count = %q", got)
	}
	if got := p.Get("active"); got != "true" {
		t.Fatalf("active = %q", got)
	}
	if got := p.Get("missing"); got != "" {
		t.Fatalf("missing = %q, want empty", got)
	}
}

func TestRequestBodyParserForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/",
		strings.NewReader("name=Pat&amount=12.50"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.IsJSON() {
		t.Fatal("form body detected as JSON")
	}
	if got := p.Get("amount"); got != "12.50" {
		t.Fatalf("amount = %q", got)
	}
}

func TestRequestBodyParserInvalidJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"broken`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	// Parse is idempotent: the stored error comes back on repeat calls.
	if err := p.Parse(); err == nil {
		t.Fatal("expected stored error on second Parse")
	}
}

func TestRequestBodyParserEmptyBody(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("empty body should parse: %v", err)
	}
	if got := p.Get("anything"); got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestRequestBodyParserGetStrings(t *testing.T) {
	req := httptest.NewRequest("POST", "/",
		strings.NewReader(`{"image_urls": ["https://a.test/1.jpg", "", "https://a.test/2.jpg"]}`))
	p := NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse: %v", err)
	}
	urls := p.GetStrings("image_urls")
	if len(urls) != 2 {
		t.Fatalf("urls = %v, want 2 non-empty", urls)
	}

	// Form variant with repeated keys.
	req = httptest.NewRequest("POST", "/",
		strings.NewReader("image_urls=https%3A%2F%2Fa.test%2F1.jpg&image_urls=https%3A%2F%2Fa.test%2F2.jpg"))
	p = NewRequestBodyParser(req)
	if err := p.Parse(); err != nil {
		t.Fatalf("parse form: %v", err)
	}
	if urls := p.GetStrings("image_urls"); len(urls) != 2 {
		t.Fatalf("form urls = %v, want 2", urls)
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  plain  ", "plain"},
		{"with\x00control\x07chars", "withcontrolchars"},
		{"keeps\ttabs and\nnewlines", "keeps\ttabs and\nnewlines"},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.in); got != tt.want {
			t.Fatalf("sanitizeInput(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
