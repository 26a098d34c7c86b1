package validators

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type addRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"min=1"`
	Email     string `json:"email" validate:"omitempty,email"`
}

func decode(t *testing.T, body string) error {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest addRequest
	return DecodeJSONBody(req, &dest)
}

func TestDecodeJSONBodyMalformedIsBadRequest(t *testing.T) {
	for _, body := range []string{"", "{", `{"product_id": 12}`} {
		err := decode(t, body)
		if !pkgerrors.IsCode(err, pkgerrors.CodeBadRequest) {
			t.Fatalf("body %q: expected bad request, got %v", body, err)
		}
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	err := decode(t, `{"product_id":"p","quantity":1,"price":"0.01"}`)
	if !pkgerrors.IsCode(err, pkgerrors.CodeBadRequest) {
		t.Fatalf("expected bad request for unknown field, got %v", err)
	}
}

func TestDecodeJSONBodyFieldErrors(t *testing.T) {
	err := decode(t, `{"quantity":0,"email":"nope"}`)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok {
		t.Fatalf("unexpected details %#v", typed.Details())
	}
	want := map[string]string{
		"product_id": "is required",
		"quantity":   "must be at least 1",
		"email":      "must be a valid email",
	}
	for field, msg := range want {
		if details[field] != msg {
			t.Fatalf("field %s: expected %q got %q", field, msg, details[field])
		}
	}
}

func TestDecodeJSONBodySuccess(t *testing.T) {
	if err := decode(t, `{"product_id":"p","quantity":2}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseQueryHelpers(t *testing.T) {
	req := &http.Request{URL: &url.URL{RawQuery: "page=3&available=true&per_page=500&flag=maybe"}}

	page, err := ParseQueryInt(req, "page", 1, 1, 1000)
	if err != nil || page != 3 {
		t.Fatalf("expected page 3, got %d (%v)", page, err)
	}
	if _, err := ParseQueryInt(req, "per_page", 15, 1, 100); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected out of range validation error, got %v", err)
	}
	if got, _ := ParseQueryInt(req, "missing", 15, 1, 100); got != 15 {
		t.Fatalf("expected default 15, got %d", got)
	}

	available, err := ParseQueryBool(req, "available")
	if err != nil || !available {
		t.Fatalf("expected available=true, got %v (%v)", available, err)
	}
	if _, err := ParseQueryBool(req, "flag"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for flag, got %v", err)
	}
}

func TestDecodeJSONBodyRejectsTrailingAndOversizedBodies(t *testing.T) {
	if err := decode(t, `{"product_id":"p","quantity":1}{"product_id":"q"}`); !pkgerrors.IsCode(err, pkgerrors.CodeBadRequest) {
		t.Fatalf("expected bad request for trailing object, got %v", err)
	}

	huge := `{"product_id":"` + strings.Repeat("x", MaxBodyBytes) + `","quantity":1}`
	err := decode(t, huge)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeBadRequest || typed.Message() != "request body too large" {
		t.Fatalf("expected body too large, got %v", err)
	}
}

func TestDecodeJSONBodyNotBlank(t *testing.T) {
	type named struct {
		Name string `json:"name" validate:"required,notblank,max=5"`
	}
	cases := map[string]string{
		`{"name":"   "}`:    "is required",
		`{"name":"abcdef"}`: "must be at most 5 characters",
	}
	for body, want := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dest named
		typed := pkgerrors.As(DecodeJSONBody(req, &dest))
		if typed == nil {
			t.Fatalf("body %s: expected validation error", body)
		}
		details, _ := typed.Details().(map[string]string)
		if details["name"] != want {
			t.Fatalf("body %s: expected %q got %q", body, want, details["name"])
		}
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  leave at door  ", 0, "leave at door"},
		{"ring\x00 bell\x07", 0, "ring bell"},
		{"line one\nline two", 0, "line one\nline two"},
		{"entregar às 18h", 10, "entregar à"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in, tc.max); got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
