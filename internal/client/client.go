// Package client implements a small API client for the portal and the
// interactive shell used by cmd/client.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tmsiti/backend/internal/models"
)

// ErrNotLoggedIn is returned by calls that need a token before Login succeeded.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Detail string
	// RetryAfter is set on 429 responses.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("server error %d: %s (retry in %s)", e.Status, e.Detail, e.RetryAfter)
	}
	return fmt.Sprintf("server error %d: %s", e.Status, e.Detail)
}

// MenuEntry is a node of the localized menu tree.
type MenuEntry struct {
	ID       int64        `json:"id"`
	Label    string       `json:"label"`
	URL      string       `json:"url"`
	Order    int          `json:"order"`
	Children []*MenuEntry `json:"children"`
}

// DocumentEntry is a document as listed by the API.
type DocumentEntry struct {
	ID            int64               `json:"id"`
	Label         string              `json:"label"`
	DocumentType  models.DocumentType `json:"document_type"`
	FilePath      *string             `json:"file_path"`
	DownloadCount int64               `json:"download_count"`
}

// Download is the result of a download request.
type Download struct {
	FilePath      *string `json:"file_path"`
	DownloadCount int64   `json:"download_count"`
}

// Client talks to the portal API. The access token lives only in memory.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Lang    string

	token string
}

// New returns a client for baseURL using hc, or a default client with a
// 10s timeout when hc is nil.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{HTTP: hc, BaseURL: strings.TrimRight(baseURL, "/")}
}

// NewHTTPClient builds an HTTP client that trusts only the CA in caFile.
// An empty caFile uses the system roots.
func NewHTTPClient(caFile string) (*http.Client, error) {
	if caFile == "" {
		return &http.Client{Timeout: 10 * time.Second}, nil
	}
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert: %w", err)
	}
	caPool := x509.NewCertPool()
	if !caPool.AppendCertsFromPEM(caCert) {
		return nil, errors.New("failed to parse CA cert")
	}
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs:    caPool,
			MinVersion: tls.VersionTLS12,
		},
	}
	return &http.Client{Transport: transport, Timeout: 10 * time.Second}, nil
}

// LoggedIn reports whether a token is held.
func (c *Client) LoggedIn() bool { return c.token != "" }

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (time.Duration, error) {
	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, body, &tok); err != nil {
		return 0, err
	}
	c.token = tok.AccessToken
	return time.Duration(tok.ExpiresIn) * time.Second, nil
}

// Logout notifies the server and forgets the token.
func (c *Client) Logout(ctx context.Context) error {
	if !c.LoggedIn() {
		return ErrNotLoggedIn
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
	c.token = ""
	return err
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	if !c.LoggedIn() {
		return nil, ErrNotLoggedIn
	}
	var u models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Menu returns the active menu tree.
func (c *Client) Menu(ctx context.Context) ([]*MenuEntry, error) {
	var out []*MenuEntry
	if err := c.do(ctx, http.MethodGet, "/api/menu", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Documents lists active documents, optionally of one type.
func (c *Client) Documents(ctx context.Context, documentType string) ([]DocumentEntry, error) {
	q := url.Values{}
	if documentType != "" {
		q.Set("document_type", documentType)
	}
	var out []DocumentEntry
	if err := c.do(ctx, http.MethodGet, "/api/documents", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download records a download of document id.
func (c *Client) Download(ctx context.Context, id int64) (*Download, error) {
	var out Download
	path := "/api/documents/" + strconv.FormatInt(id, 10) + "/download"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	if c.Lang != "" {
		if q == nil {
			q = url.Values{}
		}
		q.Set("lang", c.Lang)
	}
	u := c.BaseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var e struct {
			Detail string `json:"detail"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) == nil && e.Detail != "" {
			apiErr.Detail = e.Detail
		} else {
			apiErr.Detail = strings.TrimSpace(string(data))
		}
		if s, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			apiErr.RetryAfter = time.Duration(s) * time.Second
		}
		if resp.StatusCode == http.StatusUnauthorized {
			c.token = ""
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
