package websum

import "net/url"

// ValidateURL returns EINVALID unless raw is an absolute http or https
// URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return Errorf(EINVALID, "url required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Errorf(EINVALID, "invalid url %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return Errorf(EINVALID, "invalid url %q: host required", raw)
	}
	return nil
}
