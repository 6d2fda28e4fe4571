// HTTPRepository forwards every Repository operation as an HTTP request
// to a remote server, hex-encoding keys and values so they survive URL
// paths and text bodies unmodified. It uses only net/http and
// encoding/hex: a repository client is a thin protocol adapter with no
// domain logic of its own, and it only ever issues four fixed request
// shapes, so there is nothing here a third-party HTTP client or
// framework would meaningfully improve on.
package kivis

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// HTTPRepository is a Repository backed by a remote HTTP server. Requests
// are simple: GET /{hex key} to fetch, PUT /{hex key} with the hex-encoded
// value as body to insert, DELETE /{hex key} to remove, and
// GET /?start={hex}&end={hex} to scan, expecting a body of alternating
// hex-encoded key/value lines.
type HTTPRepository struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPRepository returns an HTTPRepository targeting baseURL.
func NewHTTPRepository(baseURL string) *HTTPRepository {
	return &HTTPRepository{BaseURL: baseURL, Client: http.DefaultClient}
}

func (h *HTTPRepository) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func (h *HTTPRepository) keyURL(key View) string {
	return h.BaseURL + "/" + hex.EncodeToString(key)
}

// Insert implements Repository.
func (h *HTTPRepository) Insert(ctx context.Context, key, value View) error {
	body := bytes.NewReader([]byte(hex.EncodeToString(value)))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.keyURL(key), body)
	if err != nil {
		return err
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: PUT %s: status %d", ErrIO, req.URL, resp.StatusCode)
	}
	return nil
}

// Get implements Repository.
func (h *HTTPRepository) Get(ctx context.Context, key View) (View, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.keyURL(key), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("%w: GET %s: status %d", ErrIO, req.URL, resp.StatusCode)
	}

	encoded, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	value, err := hex.DecodeString(string(encoded))
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrDeserialization, err)
	}
	return View(value), true, nil
}

// Remove implements Repository.
func (h *HTTPRepository) Remove(ctx context.Context, key View) (View, bool, error) {
	prior, ok, err := h.Get(ctx, key)
	if err != nil || !ok {
		return nil, ok, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, h.keyURL(key), nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return nil, false, fmt.Errorf("%w: DELETE %s: status %d", ErrIO, req.URL, resp.StatusCode)
	}
	return prior, true, nil
}

// Scan implements Repository, expecting the server to respond with
// alternating hex-encoded "key\nvalue\n" lines already in reverse
// lexicographic order.
func (h *HTTPRepository) Scan(ctx context.Context, start, end View) (ScanIterator, error) {
	u := h.BaseURL + "/?" + url.Values{
		"start": {hex.EncodeToString(start)},
		"end":   {hex.EncodeToString(end)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrIO, req.URL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	lines := bytes.Split(bytes.TrimRight(body, "\n"), []byte("\n"))
	if len(body) == 0 {
		lines = nil
	}
	if len(lines)%2 != 0 {
		return nil, fmt.Errorf("%w: scan response had an odd number of lines", ErrDeserialization)
	}

	var pairs []httpPair
	for i := 0; i+1 < len(lines); i += 2 {
		key, err := hex.DecodeString(string(lines[i]))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}
		value, err := hex.DecodeString(string(lines[i+1]))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDeserialization, err)
		}
		pairs = append(pairs, httpPair{key: key, value: value})
	}

	return &httpIterator{pairs: pairs}, nil
}

type httpPair struct{ key, value []byte }

type httpIterator struct {
	pairs []httpPair
	pos   int
}

func (it *httpIterator) Next() (View, View, bool, error) {
	if it.pos >= len(it.pairs) {
		return nil, nil, false, nil
	}
	p := it.pairs[it.pos]
	it.pos++
	return View(p.key), View(p.value), true, nil
}

func (it *httpIterator) Close() error { return nil }
