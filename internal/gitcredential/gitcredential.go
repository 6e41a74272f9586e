// Package gitcredential implements the git credential helper protocol,
// serving stored tokens to git for HTTPS remotes.
//
// git invokes the helper with an operation argument and a key=value request
// on stdin, terminated by a blank line. Only "get" produces output; "store"
// and "erase" are accepted and ignored since credential lifecycle is owned
// by the auth commands, not by git.
package gitcredential

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/ghx/cli/internal/config"
)

// tokenUsername is the username git presents alongside an OAuth token.
const tokenUsername = "x-access-token"

// TokenResolver resolves the credential consulted for a host.
type TokenResolver interface {
	ActiveToken(host string) (token, source string, err error)
}

// Handle processes one helper invocation. Requests the helper cannot serve
// produce no output, letting git fall through to other helpers.
func Handle(op string, resolver TokenResolver, in io.Reader, out io.Writer) error {
	switch op {
	case "get":
		return handleGet(resolver, in, out)
	case "store", "erase":
		io.Copy(io.Discard, in)
		return nil
	default:
		return fmt.Errorf("unknown operation %q", op)
	}
}

func handleGet(resolver TokenResolver, in io.Reader, out io.Writer) error {
	req, err := parseRequest(in)
	if err != nil {
		return err
	}
	if req["protocol"] != "https" || req["host"] == "" {
		return nil
	}

	host := stripPort(req["host"])
	token, _, err := resolver.ActiveToken(host)
	if errors.Is(err, config.ErrNoToken) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "protocol=https\n")
	fmt.Fprintf(out, "host=%s\n", req["host"])
	fmt.Fprintf(out, "username=%s\n", tokenUsername)
	fmt.Fprintf(out, "password=%s\n", token)
	fmt.Fprintln(out)
	return nil
}

// parseRequest reads key=value lines up to a blank line or EOF.
func parseRequest(in io.Reader) (map[string]string, error) {
	req := map[string]string{}
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			break
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("malformed credential request line %q", line)
		}
		req[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credential request: %w", err)
	}
	return req, nil
}

// stripPort drops a :port suffix so the host matches its registry key.
// Hosts without a port, including bare IPv6 literals, pass through as-is.
func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
