// Package authflow implements the OAuth device authorization grant against
// GitHub-compatible hosts: request a device code, hand the user a one-time
// code and verification URL, then poll the token endpoint until the user
// approves, the code expires, or the server rejects the grant.
package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/ghx/cli/internal/api"
	"github.com/ghx/cli/internal/browser"
	"github.com/ghx/cli/internal/debuglog"
	"github.com/ghx/cli/internal/ghinstance"
)

// oauthClientID identifies this CLI to the OAuth device endpoints.
const oauthClientID = "178c6fc778ccc68e1d6a"

// DefaultScopes are requested when the user does not ask for extra ones.
var DefaultScopes = []string{"repo", "read:org", "gist"}

// minPollInterval is the floor on the token polling interval. Servers may
// ask for longer waits but never shorter.
const minPollInterval = 5 * time.Second

// ErrDeviceFlowExpired indicates the user did not authorize the device
// before its code expired.
var ErrDeviceFlowExpired = errors.New("device code expired before the authorization completed")

var logger = debuglog.New("authflow")

// Result is a completed authentication.
type Result struct {
	Token    string
	Username string
}

// Flow drives one device authorization against one host.
type Flow struct {
	HTTP            *http.Client
	Browser         browser.Browser
	Stderr          io.Writer
	CopyToClipboard bool

	// BaseURL and GraphQLURL override the host-derived endpoints in tests.
	BaseURL    string
	GraphQLURL string

	sleep func(time.Duration)
	now   func() time.Time
}

// New returns a Flow with the production HTTP client and clocks.
func New(b browser.Browser, stderr io.Writer, copyCode bool) *Flow {
	return &Flow{
		HTTP:            &http.Client{Timeout: 30 * time.Second},
		Browser:         b,
		Stderr:          stderr,
		CopyToClipboard: copyCode,
		sleep:           time.Sleep,
		now:             time.Now,
	}
}

type deviceCode struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Run performs the device flow and resolves the username behind the minted
// token. Scopes defaults to DefaultScopes when empty.
func (f *Flow) Run(ctx context.Context, host string, scopes []string) (*Result, error) {
	host = ghinstance.NormalizeHostname(host)
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	base := f.BaseURL
	if base == "" {
		base = strings.TrimSuffix(ghinstance.HostPrefix(host), "/")
	}

	code, err := f.requestDeviceCode(ctx, base, scopes)
	if err != nil {
		return nil, err
	}

	f.presentCode(code)

	token, err := f.pollForToken(ctx, base, code)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(host)
	client.HTTP = f.HTTP
	if f.GraphQLURL != "" {
		client.GraphQLURL = f.GraphQLURL
	}
	username, err := client.CurrentLogin(ctx, token)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, Username: username}, nil
}

func (f *Flow) requestDeviceCode(ctx context.Context, base string, scopes []string) (*deviceCode, error) {
	form := url.Values{
		"client_id": {oauthClientID},
		"scope":     {strings.Join(scopes, " ")},
	}
	var code deviceCode
	if err := f.postForm(ctx, base+"/login/device/code", form, &code); err != nil {
		return nil, fmt.Errorf("failed to request device code: %w", err)
	}
	if code.DeviceCode == "" || code.UserCode == "" {
		return nil, fmt.Errorf("device code response was incomplete")
	}
	return &code, nil
}

func (f *Flow) presentCode(code *deviceCode) {
	fmt.Fprintf(f.Stderr, "First copy your one-time code: %s\n", code.UserCode)
	if f.CopyToClipboard {
		if err := clipboard.WriteAll(code.UserCode); err != nil {
			logger.WithError(err).Debug("could not copy code to clipboard")
		} else {
			fmt.Fprintln(f.Stderr, "The code has been copied to your clipboard.")
		}
	}
	fmt.Fprintf(f.Stderr, "Then visit: %s\n", code.VerificationURI)
	if f.Browser != nil {
		if err := f.Browser.Browse(code.VerificationURI); err != nil {
			fmt.Fprintf(f.Stderr, "Failed to open a browser; open the URL manually.\n")
			logger.WithError(err).Debug("could not launch browser")
		}
	}
}

func (f *Flow) pollForToken(ctx context.Context, base string, code *deviceCode) (string, error) {
	interval := time.Duration(code.Interval) * time.Second
	if interval < minPollInterval {
		interval = minPollInterval
	}
	deadline := f.now().Add(time.Duration(code.ExpiresIn) * time.Second)

	form := url.Values{
		"client_id":   {oauthClientID},
		"device_code": {code.DeviceCode},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
	}

	for {
		if f.now().After(deadline) {
			return "", ErrDeviceFlowExpired
		}
		f.sleep(interval)

		var resp tokenResponse
		if err := f.postForm(ctx, base+"/login/oauth/access_token", form, &resp); err != nil {
			return "", fmt.Errorf("failed to poll for token: %w", err)
		}

		switch resp.Error {
		case "":
			if resp.AccessToken != "" {
				return resp.AccessToken, nil
			}
			// no token and no error yet, keep waiting
		case "authorization_pending":
			// keep waiting
		case "slow_down":
			interval += 5 * time.Second
			logger.WithField("interval", interval).Debug("server asked to slow down")
		case "expired_token":
			return "", ErrDeviceFlowExpired
		default:
			return "", fmt.Errorf("%s - %s", resp.Error, resp.ErrorDescription)
		}
	}
}

func (f *Flow) postForm(ctx context.Context, endpoint string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := f.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, endpoint)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
