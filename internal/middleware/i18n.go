package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

type localeContextKey struct{}
type countryContextKey struct{}

var (
	LocaleKey  = localeContextKey{}
	CountryKey = countryContextKey{}
)

// Locales with translated caller-facing messages, in matcher order.
var supportedLocales = []language.Tag{language.English, language.Indonesian}

var localeMatcher = language.NewMatcher(supportedLocales)

// CountryLookup resolves ISO country codes for an IP address.
type CountryLookup func(ip string) (string, error)

// I18N stores the caller's locale and country in the request context.
func I18N(defaultLocale string, lookup CountryLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			country := ResolveCountry(r, lookup)
			locale := detectLocale(r, defaultLocale, country)
			ctx := context.WithValue(r.Context(), LocaleKey, locale)
			if country != "" {
				ctx = context.WithValue(ctx, CountryKey, strings.ToUpper(country))
			}
			w.Header().Set("Content-Language", locale)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func detectLocale(r *http.Request, fallback string, country string) string {
	if v := strings.TrimSpace(r.Header.Get("X-Locale")); v != "" {
		return normalizeLocale(v)
	}
	if v := matchAcceptLanguage(r.Header.Get("Accept-Language")); v != "" {
		return v
	}
	if strings.EqualFold(country, "ID") {
		return "id"
	}
	if country != "" {
		return "en"
	}
	if fallback != "" {
		return normalizeLocale(fallback)
	}
	return "en"
}

// matchAcceptLanguage returns "" when no supported locale matches.
func matchAcceptLanguage(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	_, idx, conf := localeMatcher.Match(tags...)
	if conf == language.No {
		return ""
	}
	return localeName(idx)
}

func normalizeLocale(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return "en"
	}
	_, idx, conf := localeMatcher.Match(tag)
	if conf == language.No {
		return "en"
	}
	return localeName(idx)
}

func localeName(idx int) string {
	base, _ := supportedLocales[idx].Base()
	return base.String()
}

// ClientIP returns the best-effort client IP address for the request.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		first, _, _ := strings.Cut(xf, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func LocaleFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(LocaleKey).(string); ok {
		return v
	}
	return "en"
}

// CountryFromContext returns the ISO country code stored in the request context.
func CountryFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CountryKey).(string); ok {
		return v
	}
	return ""
}

// ResolveCountry resolves a best-effort ISO country code for the given request.
// Proxy headers win over locale regions, which win over the GeoIP lookup.
func ResolveCountry(r *http.Request, lookup CountryLookup) string {
	if r == nil {
		return ""
	}
	headerHints := []string{"X-Country-Code", "X-Vercel-IP-Country", "CF-IPCountry"}
	for _, key := range headerHints {
		if val := strings.TrimSpace(r.Header.Get(key)); val != "" {
			return strings.ToUpper(val)
		}
	}
	for _, header := range []string{r.Header.Get("X-Locale"), r.Header.Get("Accept-Language")} {
		if region := localeRegion(header); region != "" {
			return region
		}
	}
	if normalizeLocale(r.Header.Get("X-Locale")) == "id" || matchAcceptLanguage(r.Header.Get("Accept-Language")) == "id" {
		return "ID"
	}
	if lookup != nil {
		if ip := ClientIP(r); ip != "" {
			if country, err := lookup(ip); err == nil && country != "" {
				return strings.ToUpper(country)
			}
		}
	}
	return ""
}

// localeRegion returns the explicit region subtag of the first preferred
// language, ignoring inferred regions.
func localeRegion(header string) string {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return ""
	}
	region, conf := tags[0].Region()
	if conf != language.Exact {
		return ""
	}
	return region.String()
}
