package viacep

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func stubClient(t *testing.T, status int, body string, capture *string) *Client {
	t.Helper()
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if capture != nil {
			*capture = req.URL.String()
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     http.Header{},
		}, nil
	})
	return NewClient(WithBaseURL("http://viacep.test/"), WithHTTPClient(&http.Client{Transport: rt}))
}

func TestLookupMapsFields(t *testing.T) {
	var url string
	body := `{"cep":"01001-000","logradouro":"Praça da Sé","bairro":"Sé","localidade":"São Paulo","uf":"SP"}`
	client := stubClient(t, http.StatusOK, body, &url)

	addr, err := client.Lookup(context.Background(), "01001000")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if url != "http://viacep.test/ws/01001000/json/" {
		t.Fatalf("unexpected URL %q", url)
	}
	if addr.Address != "Praça da Sé" || addr.Neighborhood != "Sé" || addr.City != "São Paulo" || addr.State != "SP" {
		t.Fatalf("unexpected address %+v", addr)
	}
	if addr.Zipcode != "01001000" {
		t.Fatalf("expected zipcode echoed, got %q", addr.Zipcode)
	}
}

func TestLookupNotFound(t *testing.T) {
	for _, body := range []string{`{"erro": true}`, `{"erro": "true"}`} {
		client := stubClient(t, http.StatusOK, body, nil)
		if _, err := client.Lookup(context.Background(), "99999999"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("body %s: expected not found, got %v", body, err)
		}
	}
}

func TestLookupUpstreamFailure(t *testing.T) {
	client := stubClient(t, http.StatusBadGateway, "upstream down", nil)
	_, err := client.Lookup(context.Background(), "01001000")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}

	client = stubClient(t, http.StatusOK, "<html>", nil)
	if _, err := client.Lookup(context.Background(), "01001000"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected decode failure as dependency error, got %v", err)
	}
}
