package pricing

import (
	"net/url"
	"strings"
)

// UnknownStore is the label used when a URL has no usable host
const UnknownStore = "Unknown"

// StoreName derives a short shop label from a result URL,
// e.g. "https://www.kontakt.az/p/1" -> "kontakt".
func StoreName(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return UnknownStore
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	if host == "" {
		return UnknownStore
	}

	name, _, _ := strings.Cut(host, ".")
	if name == "" {
		return UnknownStore
	}
	return name
}
