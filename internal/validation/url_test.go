package validation

import (
	"net"
	"strings"
	"testing"
)

func TestNewURLValidator(t *testing.T) {
	v := NewURLValidator()
	if v.AllowLocalhost {
		t.Error("Expected AllowLocalhost to be false for security")
	}
	if v.AllowPrivateIPs {
		t.Error("Expected AllowPrivateIPs to be false for security")
	}
	if v.MaxLength != 2048 {
		t.Errorf("Expected MaxLength to be 2048, got %d", v.MaxLength)
	}

	p := NewPermissiveURLValidator()
	if !p.AllowLocalhost || !p.AllowPrivateIPs {
		t.Error("Expected permissive validator to allow local addresses")
	}
}

func TestValidateAndNormalize(t *testing.T) {
	v := NewURLValidator()

	tests := []struct {
		name        string
		input       string
		expected    string
		shouldError bool
		errorMsg    string
	}{
		{
			name:        "empty URL",
			input:       "",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:        "whitespace-only URL",
			input:       "   ",
			shouldError: true,
			errorMsg:    "URL cannot be empty",
		},
		{
			name:     "URL without protocol gets HTTPS",
			input:    "www.reuters.com/world/story",
			expected: "https://www.reuters.com/world/story",
		},
		{
			name:     "HTTP URL preserved",
			input:    "http://www.bbc.co.uk/news/article",
			expected: "http://www.bbc.co.uk/news/article",
		},
		{
			name:     "scheme is lowercased",
			input:    "HTTPS://apnews.com/article/x",
			expected: "https://apnews.com/article/x",
		},
		{
			name:     "surrounding whitespace trimmed",
			input:    "  https://apnews.com/article/x \n",
			expected: "https://apnews.com/article/x",
		},
		{
			name:        "URL too long",
			input:       "https://apnews.com/" + strings.Repeat("a", 3000),
			shouldError: true,
			errorMsg:    "URL too long",
		},
		{
			name:        "invalid characters",
			input:       "https://apnews.com/<script>alert(1)</script>",
			shouldError: true,
			errorMsg:    "invalid characters",
		},
		{
			name:        "ftp scheme rejected",
			input:       "ftp://newsapi.org/v2",
			shouldError: true,
			errorMsg:    "http or https",
		},
		{
			name:        "javascript scheme rejected",
			input:       "javascript:alert(1)",
			shouldError: true,
			errorMsg:    "http or https",
		},
		{
			name:        "file scheme rejected",
			input:       "file:/etc/passwd",
			shouldError: true,
			errorMsg:    "http or https",
		},
		{
			name:        "localhost blocked by default",
			input:       "https://localhost/feed",
			shouldError: true,
			errorMsg:    "localhost URLs are not permitted",
		},
		{
			name:        "127.0.0.1 blocked by default",
			input:       "https://127.0.0.1/feed",
			shouldError: true,
			errorMsg:    "localhost URLs are not permitted",
		},
		{
			name:        "private IP blocked by default",
			input:       "https://192.168.1.1/feed",
			shouldError: true,
			errorMsg:    "private IP addresses are not permitted",
		},
		{
			name:        "unspecified address",
			input:       "http://0.0.0.0/",
			shouldError: true,
			errorMsg:    "unroutable address",
		},
		{
			name:        "no hostname",
			input:       "https:///feed",
			shouldError: true,
			errorMsg:    "URL must have a valid hostname",
		},
		{
			name:        "directory traversal in path",
			input:       "https://apnews.com/../../../etc/passwd",
			shouldError: true,
			errorMsg:    "directory traversal patterns not allowed",
		},
		{
			name:        "javascript in query params",
			input:       "https://apnews.com/feed?redirect=javascript:alert(1)",
			shouldError: true,
			errorMsg:    "suspicious query parameters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateAndNormalize(tt.input)
			if tt.shouldError {
				if err == nil {
					t.Errorf("Expected error for input %q", tt.input)
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error for input %q: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestValidateAndNormalizePermissive(t *testing.T) {
	v := NewPermissiveURLValidator()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "localhost with port",
			input:    "https://localhost:8080/v2",
			expected: "https://localhost:8080/v2",
		},
		{
			name:     "loopback with port zero",
			input:    "http://127.0.0.1:0",
			expected: "http://127.0.0.1:0",
		},
		{
			name:     "private IP",
			input:    "https://192.168.1.100/feed.xml",
			expected: "https://192.168.1.100/feed.xml",
		},
		{
			name:     "10.x.x.x private IP",
			input:    "https://10.0.0.1/feed",
			expected: "https://10.0.0.1/feed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := v.ValidateAndNormalize(tt.input)
			if err != nil {
				t.Fatalf("Unexpected error for permissive validation of %q: %v", tt.input, err)
			}
			if result != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	v := NewURLValidator()
	if !v.IsValid("https://www.nytimes.com/2024/01/01/world/story.html") {
		t.Error("expected a public article link to be valid")
	}
	if v.IsValid("http://[::1]:8080/") {
		t.Error("expected IPv6 loopback to be rejected")
	}
}

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		hostname string
		expected bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"127.0.0.53", true},
		{"::1", true},
		{"sub.localhost", true},
		{"apnews.com", false},
		{"8.8.8.8", false},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			if got := isLocalhost(tt.hostname); got != tt.expected {
				t.Errorf("isLocalhost(%q) = %v, expected %v", tt.hostname, got, tt.expected)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"172.32.0.1", false},
		{"192.168.1.1", true},
		{"169.254.1.1", true},
		{"fd00::1", true},
		{"fe80::1", true},
		{"8.8.8.8", false},
		{"2001:4860:4860::8888", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("bad test IP %q", tt.ip)
			}
			if got := isPrivateIP(ip); got != tt.expected {
				t.Errorf("isPrivateIP(%q) = %v, expected %v", tt.ip, got, tt.expected)
			}
		})
	}
}
