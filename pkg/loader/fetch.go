package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultPattern is the file name template for a domain's hierarchy document.
const DefaultPattern = "%s_hierarchy.json"

// DefaultMaxDocumentSize bounds how much of a response body is read (64MB).
const DefaultMaxDocumentSize = 64 << 20

// Fetcher retrieves the raw hierarchy document for a domain.
type Fetcher interface {
	Fetch(ctx context.Context, domain string) ([]byte, error)
}

// FetcherFunc adapts a plain function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, domain string) ([]byte, error)

// Fetch calls f(ctx, domain).
func (f FetcherFunc) Fetch(ctx context.Context, domain string) ([]byte, error) {
	return f(ctx, domain)
}

// ValidateDomain checks a domain identifier before it is used to address a
// document. Identifiers must be non-empty and must not escape the document
// directory.
func ValidateDomain(domain string) error {
	if strings.TrimSpace(domain) == "" {
		return &ValidationError{Field: "domain", Message: "domain is required"}
	}
	if strings.ContainsAny(domain, `/\`) || strings.Contains(domain, "..") {
		return &ValidationError{Field: "domain", Message: fmt.Sprintf("%q is not a valid domain identifier", domain)}
	}
	return nil
}

func documentName(pattern, domain string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}
	return fmt.Sprintf(pattern, domain)
}

// FileFetcher reads hierarchy documents from a local directory.
type FileFetcher struct {
	Dir     string
	Pattern string // defaults to DefaultPattern
}

// NewFileFetcher returns a FileFetcher rooted at dir.
func NewFileFetcher(dir string) *FileFetcher {
	return &FileFetcher{Dir: dir, Pattern: DefaultPattern}
}

// Path returns the document path for domain.
func (f *FileFetcher) Path(domain string) string {
	return filepath.Join(f.Dir, documentName(f.Pattern, domain))
}

// Fetch reads the document for domain.
func (f *FileFetcher) Fetch(ctx context.Context, domain string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := f.Path(domain)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no hierarchy document at %s", path)
		}
		return nil, fmt.Errorf("failed to read hierarchy document: %w", err)
	}
	return data, nil
}

// HTTPFetcher downloads hierarchy documents relative to a base URL.
type HTTPFetcher struct {
	BaseURL string
	Pattern string // defaults to DefaultPattern
	Client  *http.Client
	MaxSize int64 // defaults to DefaultMaxDocumentSize
}

// NewHTTPFetcher returns an HTTPFetcher with a client using timeout.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: baseURL,
		Pattern: DefaultPattern,
		Client:  &http.Client{Timeout: timeout},
	}
}

// URL returns the document URL for domain.
func (f *HTTPFetcher) URL(domain string) (string, error) {
	base, err := url.Parse(strings.TrimSuffix(f.BaseURL, "/") + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", f.BaseURL, err)
	}
	ref, err := url.Parse(url.PathEscape(documentName(f.Pattern, domain)))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

// Fetch downloads the document for domain. Any non-2xx status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, domain string) ([]byte, error) {
	target, err := f.URL(domain)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to load data: %s", resp.Status)
	}

	limit := f.MaxSize
	if limit <= 0 {
		limit = DefaultMaxDocumentSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("document exceeds %d bytes", limit)
	}
	return data, nil
}
