// Package ghinstance identifies and normalizes GitHub-compatible host
// instances: github.com, GitHub Enterprise Server, and *.ghe.com tenants.
package ghinstance

import "strings"

const (
	// DefaultHost is the hostname used when none is specified.
	DefaultHost = "github.com"
	// localhost is recognized as a development alias for github.com.
	localhost = "github.localhost"
	// tenantSuffix marks managed-cloud tenant instances.
	tenantSuffix = ".ghe.com"
)

// NormalizeHostname lowercases a hostname and strips any scheme prefix and
// trailing slashes so it can serve as a registry key.
func NormalizeHostname(host string) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = strings.TrimPrefix(h, "https://")
	h = strings.TrimPrefix(h, "http://")
	return strings.TrimRight(h, "/")
}

// IsGitHubCom reports whether the hostname is the github.com cloud instance.
func IsGitHubCom(host string) bool {
	normalized := NormalizeHostname(host)
	return normalized == DefaultHost || normalized == localhost
}

// IsTenant reports whether the hostname is a *.ghe.com managed tenant.
func IsTenant(host string) bool {
	return strings.HasSuffix(NormalizeHostname(host), tenantSuffix)
}

// IsEnterprise reports whether the hostname is a self-hosted enterprise
// server (neither cloud nor a managed tenant).
func IsEnterprise(host string) bool {
	return !IsGitHubCom(host) && !IsTenant(host)
}

// HostPrefix returns the https URL prefix for a hostname.
func HostPrefix(host string) string {
	return "https://" + NormalizeHostname(host) + "/"
}

// RESTURL returns the REST API base URL for a hostname.
func RESTURL(host string) string {
	normalized := NormalizeHostname(host)
	if IsGitHubCom(normalized) {
		return "https://api.github.com/"
	}
	return "https://" + normalized + "/api/v3/"
}

// GraphQLURL returns the GraphQL API endpoint for a hostname.
func GraphQLURL(host string) string {
	normalized := NormalizeHostname(host)
	if IsGitHubCom(normalized) {
		return "https://api.github.com/graphql"
	}
	return "https://" + normalized + "/api/graphql"
}
