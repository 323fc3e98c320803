package extract

import (
	"net/url"
	"path"
	"strings"
)

// DefaultTrustedHost is the delivery domain of the generation service.
const DefaultTrustedHost = "replicate.delivery"

// DefaultExtensions are the image file extensions recognized by the grammar.
var DefaultExtensions = []string{"png", "jpg", "jpeg", "webp", "gif"}

// Grammar decides whether a text value is an image locator: an absolute
// http(s) address whose path ends in an image extension, or whose host is a
// trusted delivery domain. Both rules carry equal weight.
type Grammar struct {
	extensions   map[string]struct{}
	trustedHosts []string
}

// NewGrammar builds a grammar over the default extensions. Trusted hosts
// also match their subdomains. Blank hosts are ignored.
func NewGrammar(trustedHosts ...string) Grammar {
	g := Grammar{extensions: make(map[string]struct{}, len(DefaultExtensions))}
	for _, ext := range DefaultExtensions {
		g.extensions[ext] = struct{}{}
	}
	for _, host := range trustedHosts {
		host = strings.Trim(strings.ToLower(strings.TrimSpace(host)), ".")
		if host != "" {
			g.trustedHosts = append(g.trustedHosts, host)
		}
	}
	return g
}

// DefaultGrammar trusts DefaultTrustedHost.
func DefaultGrammar() Grammar {
	return NewGrammar(DefaultTrustedHost)
}

// Match reports whether s is an image locator. s is tested verbatim.
func (g Grammar) Match(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return false
	}
	if ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), "."); ext != "" {
		if _, ok := g.extensions[ext]; ok {
			return true
		}
	}
	if u.Path == "" || u.Path == "/" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, trusted := range g.trustedHosts {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}
	return false
}
