// Browser request import for upstreams that gate on cookies or a real user agent.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`-H\s+'([^']+)'|-H\s+"([^"]+)"`)
	curlCookieRe = regexp.MustCompile(`-b\s+'([^']+)'|-b\s+"([^"]+)"`)
)

// BrowserRequest holds the headers and cookie string copied from a browser "Copy as cURL" command.
type BrowserRequest struct {
	Headers map[string]string
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*BrowserRequest, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts headers and cookies from a cURL command.
//
// A -b cookie wins over a Cookie header. The Cookie header is never kept in Headers.
func ParseCurlCommand(curlCmd string) (*BrowserRequest, error) {
	curlCmd = strings.ReplaceAll(curlCmd, "\\\n", " ")
	curlCmd = strings.ReplaceAll(curlCmd, "\\", "")

	req := &BrowserRequest{Headers: make(map[string]string)}
	var headerCookie string

	for _, match := range curlHeaderRe.FindAllStringSubmatch(curlCmd, -1) {
		line := firstGroup(match)
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if strings.EqualFold(key, "cookie") {
			if headerCookie == "" {
				headerCookie = value
			}
			continue
		}
		req.Headers[key] = value
	}

	if match := curlCookieRe.FindStringSubmatch(curlCmd); match != nil {
		req.Cookie = firstGroup(match)
	} else {
		req.Cookie = headerCookie
	}

	if len(req.Headers) == 0 && req.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return req, nil
}

func firstGroup(match []string) string {
	if match[1] != "" {
		return match[1]
	}
	return match[2]
}

// Header looks up a header by case-insensitive name.
func (b *BrowserRequest) Header(name string) string {
	for k, v := range b.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Cookies splits the cookie string into name/value pairs.
func (b *BrowserRequest) Cookies() map[string]string {
	cookies := make(map[string]string)
	for part := range strings.SplitSeq(b.Cookie, ";") {
		name, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok || name == "" {
			continue
		}
		cookies[name] = value
	}
	return cookies
}

// ApplyTo copies the user agent, referer and cookies onto a NetEase provider config.
//
// Existing cookies not present in the browser request are kept.
func (b *BrowserRequest) ApplyTo(cfg *NetEaseConfig) {
	if ua := b.Header("User-Agent"); ua != "" {
		cfg.UserAgent = ua
	}
	if ref := b.Header("Referer"); ref != "" {
		cfg.Referer = ref
	}
	if cfg.Cookies == nil {
		cfg.Cookies = make(map[string]string)
	}
	for k, v := range b.Cookies() {
		cfg.Cookies[k] = v
	}
}
