// Package api is a minimal client for the GitHub REST and GraphQL APIs,
// covering what the auth commands need: resolving the login behind a token
// and inspecting the token's granted scopes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ghx/cli/internal/ghinstance"
)

// MinimumScopes are the scopes every stored token is expected to carry for
// the CLI to function.
var MinimumScopes = []string{"repo", "read:org"}

// Client issues authenticated API requests against one host.
type Client struct {
	HTTP       *http.Client
	RESTURL    string
	GraphQLURL string
}

// NewClient returns a client for the given host.
func NewClient(host string) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: 30 * time.Second},
		RESTURL:    ghinstance.RESTURL(host),
		GraphQLURL: ghinstance.GraphQLURL(host),
	}
}

// HTTPError is a non-2xx API response.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (c *Client) do(req *http.Request, token string) (*http.Response, error) {
	req.Header.Set("Authorization", "token "+token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	return c.HTTP.Do(req)
}

// CurrentLogin resolves the username that a token authenticates as, using
// the GraphQL viewer query.
func (c *Client) CurrentLogin(ctx context.Context, token string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"query": "query { viewer { login } }",
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req, token)
	if err != nil {
		return "", fmt.Errorf("failed to query current user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	var result struct {
		Data struct {
			Viewer struct {
				Login string `json:"login"`
			} `json:"viewer"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Errors) > 0 {
		return "", fmt.Errorf("GraphQL error: %s", result.Errors[0].Message)
	}
	if result.Data.Viewer.Login == "" {
		return "", fmt.Errorf("could not determine the login for this token")
	}
	return result.Data.Viewer.Login, nil
}

// TokenScopes returns the OAuth scopes granted to a token, as reported by
// the X-Oauth-Scopes response header on the REST API root.
func (c *Client) TokenScopes(ctx context.Context, token string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RESTURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.do(req, token)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect token: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Message: "token is invalid or expired"}
	}
	if resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode}
	}

	header := resp.Header.Get("X-Oauth-Scopes")
	if header == "" {
		return nil, nil
	}
	var scopes []string
	for _, s := range strings.Split(header, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes, nil
}

// MissingScopesError reports scopes a token lacks.
type MissingScopesError struct {
	Missing []string
}

func (e *MissingScopesError) Error() string {
	return "missing required scopes: " + strings.Join(e.Missing, ", ")
}

// CheckMinimumScopes verifies that a scope set covers MinimumScopes. Higher
// org grants (write:org, admin:org) satisfy read:org.
func CheckMinimumScopes(scopes []string) error {
	have := map[string]bool{}
	for _, s := range scopes {
		have[s] = true
	}
	if have["admin:org"] || have["write:org"] {
		have["read:org"] = true
	}

	var missing []string
	for _, want := range MinimumScopes {
		if !have[want] {
			missing = append(missing, want)
		}
	}
	if len(missing) > 0 {
		return &MissingScopesError{Missing: missing}
	}
	return nil
}

func readMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
