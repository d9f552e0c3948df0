package extract

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:m\.)?youtube\.com/watch\?(?:[^#]*&)?v=([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtube\.com/(?:embed|v)/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtube\.com/live/([0-9A-Za-z_-]{11})`),
}

var bareVideoIDRegex = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// ExtractVideoID pulls the 11-character video ID out of the supported
// YouTube URL forms (watch, youtu.be, embed, v, shorts, live, mobile) or
// accepts a bare ID.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, pattern := range videoIDPatterns {
		if match := pattern.FindStringSubmatch(raw); len(match) > 1 {
			return match[1], nil
		}
	}
	if bareVideoIDRegex.MatchString(raw) {
		return raw, nil
	}
	return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("could not extract video ID from %q", raw))
}

// ValidateInputURL rejects anything that is not an http(s) URL or a bare
// video ID before a request object is built.
func ValidateInputURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if bareVideoIDRegex.MatchString(raw) {
		return WatchURL(raw), nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("invalid URL: %w", err))
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("invalid URL: missing scheme or host"))
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("unsupported URL scheme: %s", parsed.Scheme))
	}
	if !isYouTubeURL(parsed) {
		return "", wrapCategory(CategoryInvalidURL, fmt.Errorf("not a YouTube URL: %s", parsed.Host))
	}
	return parsed.String(), nil
}

func isYouTubeURL(parsed *url.URL) bool {
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "m.")
	return host == "youtube.com" || host == "youtu.be" || host == "music.youtube.com"
}

// WatchURL builds the canonical watch URL for a video ID.
func WatchURL(id string) string {
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + id
}
