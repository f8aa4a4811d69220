package validators

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/gigbook-backend/pkg/errors"
)

type reviewBody struct {
	Content string `json:"content" validate:"required,min=10,max=1000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"short","rating":7}`))
	var body reviewBody
	err := DecodeJSONBody(req, &body)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %#v", typed.Details())
	}
	if details["content"] != "must be at least 10" {
		t.Fatalf("unexpected content detail %q", details["content"])
	}
	if details["rating"] != "must be at most 5" {
		t.Fatalf("unexpected rating detail %q", details["rating"])
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"long enough text","rating":4,"extra":true}`))
	var body reviewBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"long enough text","rating":4}`))
	var body reviewBody
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Rating != 4 {
		t.Fatalf("unexpected rating %d", body.Rating)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=20&page=abc&rating=9", nil)

	limit, err := ParseQueryInt(req, "limit", 10, 1, 100)
	if err != nil || limit != 20 {
		t.Fatalf("expected limit 20, got %d (%v)", limit, err)
	}
	if got, err := ParseQueryInt(req, "missing", 10, 1, 100); err != nil || got != 10 {
		t.Fatalf("expected default 10, got %d (%v)", got, err)
	}
	if _, err := ParseQueryInt(req, "page", 1, 1, 100); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for non-numeric page, got %v", err)
	}
	if _, err := ParseOptionalQueryInt(req, "rating", 1, 5); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for out of range rating, got %v", err)
	}
	rating, err := ParseOptionalQueryInt(req, "stars", 1, 5)
	if err != nil || rating != nil {
		t.Fatalf("expected nil rating when absent, got %v (%v)", rating, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  thanks for playing  ", 6); got != "thanks" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}

func TestSanitizeStringKeepsRunesWhole(t *testing.T) {
	if got := SanitizeString("Café Olé", 4); got != "Café" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
	if got := SanitizeString("  newest ", 0); got != "newest" {
		t.Fatalf("expected untruncated value, got %q", got)
	}
}

type nestedBody struct {
	Ratings struct {
		Overall int `json:"overall" validate:"required,min=1,max=5"`
	} `json:"ratings"`
	Tags []string `json:"tags" validate:"omitempty,max=2,dive,min=1"`
}

func TestDecodeJSONBodyReportsNestedPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"ratings":{"overall":9},"tags":["a","","c"]}`))
	var body nestedBody
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	if typed == nil {
		t.Fatal("expected validation error")
	}
	details := typed.Details().(map[string]string)
	if details["ratings.overall"] != "must be at most 5" {
		t.Fatalf("unexpected nested detail %#v", details)
	}
	if details["tags"] != "must contain at most 2 items" {
		t.Fatalf("unexpected slice detail %#v", details)
	}
}

func TestDecodeJSONBodyRejectsEmptyAndTrailingData(t *testing.T) {
	var body reviewBody
	empty := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	if typed := pkgerrors.As(DecodeJSONBody(empty, &body)); typed == nil || typed.Message() != "request body is required" {
		t.Fatalf("expected empty body error, got %v", typed)
	}

	trailing := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"content":"long enough text","rating":4}{}`))
	if err := DecodeJSONBody(trailing, &body); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for trailing data, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsOversizedBody(t *testing.T) {
	payload := `{"content":"` + strings.Repeat("x", MaxBodyBytes) + `","rating":4}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	var body reviewBody
	typed := pkgerrors.As(DecodeJSONBody(req, &body))
	if typed == nil || typed.Message() != "request body too large" {
		t.Fatalf("expected too large error, got %v", typed)
	}
}

type color string

func parseColor(v string) (color, error) {
	switch v {
	case "":
		return "red", nil
	case "red", "blue":
		return color(v), nil
	}
	return "", errors.New("bad color")
}

func TestParseQueryEnum(t *testing.T) {
	allowed := []color{"red", "blue"}

	got, err := ParseQueryEnum(httptest.NewRequest(http.MethodGet, "/?c=", nil), "c", parseColor, allowed)
	if err != nil || got != "red" {
		t.Fatalf("expected default red, got %q (%v)", got, err)
	}

	got, err = ParseQueryEnum(httptest.NewRequest(http.MethodGet, "/?c=+blue+", nil), "c", parseColor, allowed)
	if err != nil || got != "blue" {
		t.Fatalf("expected trimmed blue, got %q (%v)", got, err)
	}

	_, err = ParseQueryEnum(httptest.NewRequest(http.MethodGet, "/?c=green", nil), "c", parseColor, allowed)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, _ := typed.Details().(map[string]any)
	if details["allowed"] != "red,blue" || details["field"] != "c" {
		t.Fatalf("unexpected details %+v", typed.Details())
	}
}
