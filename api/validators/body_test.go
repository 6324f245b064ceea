package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required,min=3"`
	Email string `json:"email" validate:"required,email"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ada","email":"ada@example.com"}`))
	var body samplePayload
	if err := DecodeJSONBody(r, &body); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Name != "Ada" {
		t.Fatalf("name = %q", body.Name)
	}
}

func TestDecodeJSONBodyReportsEveryField(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"","email":"nope"}`))
	var body samplePayload
	err := DecodeJSONBody(r, &body)
	if err == nil {
		t.Fatal("expected validation error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	fields := typed.Fields()
	if len(fields) != 2 {
		t.Fatalf("fields = %+v, want both name and email", fields)
	}
	if fields[0].Field != "email" || fields[1].Field != "name" {
		t.Fatalf("fields not sorted: %+v", fields)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"Ada","email":"ada@example.com","extra":true}`))
	var body samplePayload
	if err := DecodeJSONBody(r, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest("GET", "/?limit=30", nil)
	got, err := ParseQueryInt(r, "limit", 25, 1, 100)
	if err != nil || got != 30 {
		t.Fatalf("got %d, err %v", got, err)
	}

	r = httptest.NewRequest("GET", "/", nil)
	got, err = ParseQueryInt(r, "limit", 25, 1, 100)
	if err != nil || got != 25 {
		t.Fatalf("default: got %d, err %v", got, err)
	}

	r = httptest.NewRequest("GET", "/?limit=abc", nil)
	if _, err := ParseQueryInt(r, "limit", 25, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error: %v", err)
	}

	r = httptest.NewRequest("GET", "/?limit=1000", nil)
	if _, err := ParseQueryInt(r, "limit", 25, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error: %v", err)
	}
}
