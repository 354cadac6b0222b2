package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// healthTimeout bounds the availability probe, which should be cheaper
// than a full lookup.
const healthTimeout = 2 * time.Second

// HTTPLookup resolves account names against the account lookup API.
// Negative results are cached so a name missing from the chart of
// accounts is asked about at most once per run.
type HTTPLookup struct {
	baseURL string
	client  *http.Client

	mu       sync.Mutex
	notFound map[string]bool
}

// NewHTTPLookup creates a lookup client for the given API base URL.
func NewHTTPLookup(baseURL string) *HTTPLookup {
	return &HTTPLookup{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{},
		notFound: make(map[string]bool),
	}
}

type lookupRequest struct {
	Name string `json:"name"`
}

type lookupResponse struct {
	Success    bool `json:"success"`
	FuzzyMatch bool `json:"fuzzy_match"`
	Account    *struct {
		ID string `json:"id"`
	} `json:"account"`
}

// LookupName implements Lookup against POST /api/accounts/lookup.
// A 404 is a definitive miss and is cached; transport and server errors
// are returned for the caller to degrade on.
func (l *HTTPLookup) LookupName(ctx context.Context, name string) (string, error) {
	l.mu.Lock()
	miss := l.notFound[name]
	l.mu.Unlock()
	if miss {
		return "", ErrNotFound
	}

	body, err := json.Marshal(lookupRequest{Name: name})
	if err != nil {
		return "", fmt.Errorf("failed to encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		l.baseURL+"/api/accounts/lookup", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var decoded lookupResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return "", fmt.Errorf("failed to decode lookup response: %w", err)
		}
		if decoded.Success && decoded.Account != nil && decoded.Account.ID != "" {
			return decoded.Account.ID, nil
		}
		return "", ErrNotFound
	case http.StatusNotFound:
		l.mu.Lock()
		l.notFound[name] = true
		l.mu.Unlock()
		return "", ErrNotFound
	default:
		return "", fmt.Errorf("lookup API returned status %d", resp.StatusCode)
	}
}

// Available probes GET /health with a short deadline.
func (l *HTTPLookup) Available(ctx context.Context) bool {
	hctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(hctx, http.MethodGet, l.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
