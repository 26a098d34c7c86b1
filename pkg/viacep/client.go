package viacep

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const (
	defaultBaseURL              = "https://viacep.com.br"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
)

// ErrNotFound is returned when ViaCEP has no record for the postal code.
var ErrNotFound = errors.New("zipcode not found")

// Client looks up Brazilian postal codes on ViaCEP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the ViaCEP base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

type lookupResponse struct {
	Street       string `json:"logradouro"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	// ViaCEP has sent both a boolean and the string "true" here.
	Erro any `json:"erro"`
}

func (r lookupResponse) notFound() bool {
	switch v := r.Erro.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

// Lookup resolves an 8-digit postal code. A code ViaCEP does not know yields
// ErrNotFound; transport and decoding failures are dependency errors.
func (c *Client) Lookup(ctx context.Context, zipcode string) (types.Address, error) {
	if c == nil {
		return types.Address{}, pkgerrors.New(pkgerrors.CodeDependency, "viacep client not configured")
	}

	url := fmt.Sprintf("%s/ws/%s/json/", strings.TrimRight(c.baseURL, "/"), zipcode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return types.Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build zipcode request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return types.Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute zipcode request")
	}
	defer func() { _ = resp.Body.Close() }()

	// ViaCEP answers 400 for malformed codes, which callers already reject.
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusNotFound {
		return types.Address{}, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return types.Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "zipcode request failed")
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return types.Address{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode zipcode response")
	}
	if body.notFound() {
		return types.Address{}, ErrNotFound
	}

	return types.Address{
		Address:      body.Street,
		Neighborhood: body.Neighborhood,
		City:         body.City,
		State:        body.State,
		Zipcode:      zipcode,
	}, nil
}
