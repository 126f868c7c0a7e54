package cli

import (
	"fmt"
	"net/url"
	"strings"
)

// validateHostURL rejects host values the client cannot use: the base URL
// must be a bare http(s) origin because request paths are appended to it.
func validateHostURL(host string) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("invalid host %q: host URL cannot be empty", host)
	}

	u, err := url.Parse(host)
	if err != nil {
		return fmt.Errorf("invalid host %q: %w", host, err)
	}
	if reason := hostURLProblem(u); reason != "" {
		return fmt.Errorf("invalid host %q: %s", host, reason)
	}
	return nil
}

func hostURLProblem(u *url.URL) string {
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return "scheme must be http or https"
	case u.Host == "":
		return "missing host"
	case u.Path != "" && u.Path != "/":
		return "host must not include a path"
	case u.RawQuery != "" || u.Fragment != "":
		return "host must not include query or fragment"
	}
	return ""
}
