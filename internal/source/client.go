package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ragxuary/docs-kit/doctree"
)

// Client reads projects from the documentation backend's HTTP API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient returns a Client for the API at baseURL. If token is non-empty it is sent as a
// bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Tree implements Source with GET /api/v1/projects/{slug}/docs.
func (c *Client) Tree(ctx context.Context, project string) ([]*doctree.Node, error) {
	var tree []*doctree.Node
	if err := c.get(ctx, c.docsURL(project), &tree); err != nil {
		return nil, fmt.Errorf("document tree of %q: %w", project, err)
	}
	if tree == nil {
		tree = []*doctree.Node{}
	}
	if err := doctree.Validate(tree); err != nil {
		return nil, fmt.Errorf("document tree of %q: %w", project, err)
	}
	return tree, nil
}

// Document implements Source with GET /api/v1/projects/{slug}/docs/{path}.
func (c *Client) Document(ctx context.Context, project, path string) (*Document, error) {
	var doc Document
	if err := c.get(ctx, c.docsURL(project, strings.Split(path, "/")...), &doc); err != nil {
		return nil, fmt.Errorf("document %q: %w", path, err)
	}
	if doc.Path == "" {
		doc.Path = path
	}
	return &doc, nil
}

func (c *Client) docsURL(project string, path ...string) string {
	u := c.baseURL + "/api/v1/projects/" + url.PathEscape(project) + "/docs"
	for _, segment := range path {
		u += "/" + url.PathEscape(segment)
	}
	return u
}

func (c *Client) get(ctx context.Context, u string, v any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
