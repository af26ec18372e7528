// Package proxy resolves which HTTP proxy, if any, a request should go through.
//
// The proxy settings come from the host configuration: a proxy host and port, optional
// credentials, and a list of hosts that must be reached directly.
package proxy

import (
	"net"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
)

// Config describes the globally configured HTTP proxy.
type Config struct {
	Host        string `json:"host,omitempty" yaml:"host,omitempty"`
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	NoProxyHost string `json:"noProxyHost,omitempty" yaml:"noProxyHost,omitempty"` // newline, comma or space separated
	Username    string `json:"username,omitempty" yaml:"username,omitempty"`
	Password    string `json:"password,omitempty" yaml:"password,omitempty"`
}

// Resolve returns the proxy URL to use for target, or nil when the request
// should go direct.
func (c *Config) Resolve(target *url.URL) *url.URL {
	if c == nil || strings.TrimSpace(c.Host) == "" {
		return nil
	}
	if target != nil && c.Excluded(target.Hostname()) {
		return nil
	}

	host := strings.TrimSpace(c.Host)
	if c.Port > 0 {
		host = net.JoinHostPort(host, strconv.Itoa(c.Port))
	}

	u := &url.URL{Scheme: "http", Host: host}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u
}

// Func adapts Resolve to the signature expected by http.Transport.Proxy.
func (c *Config) Func() func(*http.Request) (*url.URL, error) {
	return func(req *http.Request) (*url.URL, error) {
		return c.Resolve(req.URL), nil
	}
}

// Excluded reports whether host appears in the no-proxy list.
//
// Entries match exactly (case-insensitive), as a glob such as "*.corp.example",
// or as a domain suffix when they start with a dot.
func (c *Config) Excluded(host string) bool {
	if c == nil || host == "" {
		return false
	}
	host = strings.ToLower(host)

	for _, entry := range c.NoProxyHosts() {
		entry = strings.ToLower(entry)
		switch {
		case entry == host:
			return true
		case strings.HasPrefix(entry, "."):
			if strings.HasSuffix(host, entry) || host == entry[1:] {
				return true
			}
		case strings.ContainsAny(entry, "*?["):
			if ok, err := path.Match(entry, host); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// NoProxyHosts splits the no-proxy list into individual entries.
func (c *Config) NoProxyHosts() []string {
	if c == nil {
		return nil
	}
	return strings.FieldsFunc(c.NoProxyHost, func(r rune) bool {
		switch r {
		case '\n', '\r', '\t', ' ', ',', '|':
			return true
		}
		return false
	})
}

// String returns the proxy address without credentials.
func (c *Config) String() string {
	u := c.Resolve(nil)
	if u == nil {
		return "direct"
	}
	return u.Redacted()
}
