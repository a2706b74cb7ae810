package validation

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// URLValidator checks links before they are handed to the network stack or an
// external opener: article links, image links, RSS feed URLs and the
// configured API base URL.
type URLValidator struct {
	AllowLocalhost  bool
	AllowPrivateIPs bool
	MaxLength       int
}

// NewURLValidator blocks loopback and private addresses. Article links and
// images come from third parties, so this is the default for anything that
// originates in a response body.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  false,
		AllowPrivateIPs: false,
		MaxLength:       2048,
	}
}

// NewPermissiveURLValidator accepts local addresses. It is used for URLs the
// user configured themselves, such as a self-hosted API mirror.
func NewPermissiveURLValidator() *URLValidator {
	return &URLValidator{
		AllowLocalhost:  true,
		AllowPrivateIPs: true,
		MaxLength:       2048,
	}
}

// ValidateAndNormalize returns the normalized form of input or an error
// describing why it cannot be used. Inputs without a scheme get https.
func (v *URLValidator) ValidateAndNormalize(input string) (string, error) {
	input = strings.TrimSpace(input)

	if input == "" {
		return "", fmt.Errorf("URL cannot be empty")
	}
	if len(input) > v.MaxLength {
		return "", fmt.Errorf("URL too long (max %d characters)", v.MaxLength)
	}
	if strings.ContainsAny(input, "<>\"'`") {
		return "", fmt.Errorf("URL contains invalid characters")
	}

	if scheme, _, found := strings.Cut(input, "://"); found {
		switch strings.ToLower(scheme) {
		case "http", "https":
		default:
			return "", fmt.Errorf("URL must use http or https protocol")
		}
	} else if strings.HasPrefix(strings.ToLower(input), "javascript:") ||
		strings.HasPrefix(strings.ToLower(input), "data:") ||
		strings.HasPrefix(strings.ToLower(input), "file:") {
		return "", fmt.Errorf("URL must use http or https protocol")
	} else {
		input = "https://" + input
	}

	parsed, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)

	if parsed.Hostname() == "" {
		return "", fmt.Errorf("URL must have a valid hostname")
	}

	if err := v.checkHost(parsed.Hostname()); err != nil {
		return "", err
	}

	if strings.Contains(parsed.Path, "..") {
		return "", fmt.Errorf("directory traversal patterns not allowed in URL path")
	}
	lowerQuery := strings.ToLower(parsed.RawQuery)
	if strings.Contains(lowerQuery, "<script") || strings.Contains(lowerQuery, "javascript:") {
		return "", fmt.Errorf("suspicious query parameters detected")
	}

	return parsed.String(), nil
}

// IsValid is a convenience for callers that only need a yes or no.
func (v *URLValidator) IsValid(input string) bool {
	_, err := v.ValidateAndNormalize(input)
	return err == nil
}

func (v *URLValidator) checkHost(hostname string) error {
	hostname = strings.ToLower(hostname)

	if !v.AllowLocalhost && isLocalhost(hostname) {
		return fmt.Errorf("localhost URLs are not permitted")
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if ip.IsUnspecified() || ip.Equal(net.IPv4bcast) {
			return fmt.Errorf("unroutable address %s", hostname)
		}
		if !v.AllowPrivateIPs && isPrivateIP(ip) {
			return fmt.Errorf("private IP addresses are not permitted")
		}
	}

	return nil
}

func isLocalhost(hostname string) bool {
	if hostname == "localhost" || strings.HasSuffix(hostname, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	return ip != nil && ip.IsLoopback()
}

func isPrivateIP(ip net.IP) bool {
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast()
}
