package perseus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/japaniel/lexitheras/pkg/lexerror"
)

// RawText is the unparsed markup payload for one URN.
type RawText struct {
	URN  string
	Body []byte
}

// Client fetches pages from the Perseus vocabulary site. It is a pure I/O
// boundary: no parsing happens here, and no retries either.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient creates a client for the given base URL (e.g.
// https://vocab.perseus.org) with a bounded per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: timeout},
	}
}

// maxBodySize limits response reads to prevent OOM from a misbehaving server.
const maxBodySize = 10 * 1024 * 1024 // 10 MB

// CatalogKey identifies the catalog source for cache keying. It is the host
// part of the base URL so that decks built against a mirror get their own
// cached catalog.
func (c *Client) CatalogKey() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Host
}

// FetchWordList retrieves the full (unpaginated) vocabulary word list for a
// text URN. A 404 from Perseus means the URN has no word list.
func (c *Client) FetchWordList(ctx context.Context, urn string) (RawText, error) {
	u := fmt.Sprintf("%s/word-list/%s/?page=all", c.baseURL, urn)
	body, status, err := c.get(ctx, u)
	if err != nil {
		return RawText{}, err
	}
	switch {
	case status == http.StatusNotFound:
		return RawText{}, lexerror.NotFoundSourceError{URN: urn}
	case status != http.StatusOK:
		return RawText{}, lexerror.NetworkError{URL: u, Err: fmt.Errorf("unexpected status %d", status)}
	}
	return RawText{URN: urn, Body: body}, nil
}

// FetchCatalog retrieves the editions listing page used to populate the
// catalog index.
func (c *Client) FetchCatalog(ctx context.Context) ([]byte, error) {
	u := c.baseURL + "/editions/"
	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, lexerror.NetworkError{URL: u, Err: fmt.Errorf("unexpected status %d", status)}
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, lexerror.NetworkError{URL: u, Err: err}
	}
	setBrowserHeaders(req)

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, 0, lexerror.NetworkError{URL: u, Err: err}
	}
	defer resp.Body.Close()

	// Read one byte past the cap so a body of exactly maxBodySize is
	// distinguishable from an oversized one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, 0, lexerror.NetworkError{URL: u, Err: err}
	}
	if int64(len(body)) > int64(maxBodySize) {
		return nil, 0, lexerror.NetworkError{
			URL: u,
			Err: fmt.Errorf("response body exceeded %d bytes", maxBodySize),
		}
	}
	return body, resp.StatusCode, nil
}

// setBrowserHeaders mimics a real browser; Perseus sits behind protection
// that rejects bare Go user agents.
func setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,grc;q=0.8")
}
