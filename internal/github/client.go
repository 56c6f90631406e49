// Package github wraps go-github for the REST calls provisioning makes and
// adds a small GraphQL envelope on top of the same transport. The
// repository and board semantics built on it live in the tracker package.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"
)

const (
	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	// DefaultGraphQLURL is the public GitHub GraphQL endpoint.
	DefaultGraphQLURL = "https://api.github.com/graphql"

	// DefaultTimeout bounds every HTTP request.
	DefaultTimeout = 30 * time.Second

	userAgent = "gpm"

	// maxErrorBody caps how much of an error response is kept for logging.
	maxErrorBody = 4096
)

// Client talks to one repository on a GitHub instance.
type Client struct {
	token      string
	owner      string
	repo       string
	apiURL     string
	graphqlURL string
	httpClient *http.Client

	rest *gh.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIURL overrides the REST base URL (GitHub Enterprise, tests).
func WithAPIURL(u string) ClientOption {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(u, "/")
	}
}

// WithGraphQLURL overrides the GraphQL endpoint.
func WithGraphQLURL(u string) ClientOption {
	return func(c *Client) {
		c.graphqlURL = u
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for owner/repo authenticated with a bearer
// token. An api URL that does not parse leaves the public endpoint in
// place; configuration validation rejects such URLs before this point.
func NewClient(token, owner, repo string, opts ...ClientOption) *Client {
	c := &Client{
		token:      token,
		owner:      owner,
		repo:       repo,
		apiURL:     DefaultAPIURL,
		graphqlURL: DefaultGraphQLURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	rest := gh.NewClient(c.httpClient)
	if c.token != "" {
		rest = rest.WithAuthToken(c.token)
	}
	rest.UserAgent = userAgent
	if base, err := url.Parse(c.apiURL + "/"); err == nil {
		rest.BaseURL = base
	}
	c.rest = rest

	return c
}

// Owner returns the repository owner login.
func (c *Client) Owner() string { return c.owner }

// Repo returns the repository name.
func (c *Client) Repo() string { return c.repo }

// RepoPath builds a repository-scoped REST path: /repos/{owner}/{repo}/{parts...}.
// Each part is escaped segment by segment, so branch names such as
// "feat/add-login-form" keep their slash.
func (c *Client) RepoPath(parts ...string) string {
	var b strings.Builder
	b.WriteString("/repos/")
	b.WriteString(url.PathEscape(c.owner))
	b.WriteString("/")
	b.WriteString(url.PathEscape(c.repo))
	for _, p := range parts {
		for _, seg := range strings.Split(p, "/") {
			if seg == "" {
				continue
			}
			b.WriteString("/")
			b.WriteString(url.PathEscape(seg))
		}
	}
	return b.String()
}

// Get issues a GET request against a REST path and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the JSON response into out.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, http.MethodPost, path, in, out)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	// Relative to BaseURL, which ends in a slash.
	req, err := c.rest.NewRequest(method, strings.TrimPrefix(path, "/"), in)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	_, err = c.rest.Do(ctx, req, out)
	return wrapError(err)
}

// graphQLRequest is the GraphQL request envelope.
type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphQLResponse is the GraphQL response envelope.
type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
		Type    string `json:"type,omitempty"`
	} `json:"errors"`
}

// GraphQL runs a query or mutation and decodes the "data" member into out.
// A response carrying an errors array returns *GraphQLError; out is still
// populated with any partial data. Non-2xx responses return *ResponseError.
func (c *Client) GraphQL(ctx context.Context, query string, vars map[string]any, out any) error {
	req, err := c.rest.NewRequest(http.MethodPost, c.graphqlURL, graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("create graphql request: %w", err)
	}

	var envelope graphQLResponse
	if _, err := c.rest.Do(ctx, req, &envelope); err != nil {
		return wrapError(err)
	}

	if out != nil && len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("unmarshal graphql data: %w", err)
		}
	}

	if len(envelope.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range envelope.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return gqlErr
	}

	return nil
}
