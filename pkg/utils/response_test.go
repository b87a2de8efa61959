package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, http.StatusBadGateway, "upstream failed")

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "upstream failed" {
		t.Fatalf("body = %v", body)
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Text string `json:"text"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"кіт"}`))
	if err := DecodeJSON(httptest.NewRecorder(), req, 1024, &dst); err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if dst.Text != "кіт" {
		t.Fatalf("text = %q", dst.Text)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"text":"`+strings.Repeat("a", 100)+`"}`))
	if err := DecodeJSON(httptest.NewRecorder(), req, 16, &dst); !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeJSON(httptest.NewRecorder(), req, 16, &dst); err == nil {
		t.Fatalf("expected error for empty body")
	}
}
