package domain

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	placeholderValue = "{VALUE}"
	placeholderPhone = "{PHONE}"
)

// phonePattern is deliberately permissive: a leading "+" or digit followed by
// at least four digits or separators.
var phonePattern = regexp.MustCompile(`^[+\d][\d\s\-().]{4,}$`)

// phoneLinks maps phone-style platforms to their canonical dial/chat prefix.
// The digits-only value is appended.
var phoneLinks = map[string]string{
	"whatsapp": "https://wa.me/",
	"phone":    "tel:",
	"sms":      "sms:",
	"viber":    "viber://chat?number=%2B",
	"telegram": "https://t.me/+",
	"signal":   "https://signal.me/#p/+",
}

// handleLinks maps handle-style platforms to the base URL a bare handle is
// appended to (after stripping a leading "@").
var handleLinks = map[string]string{
	"instagram":  "https://instagram.com/",
	"facebook":   "https://facebook.com/",
	"x":          "https://x.com/",
	"twitter":    "https://x.com/",
	"threads":    "https://threads.net/@",
	"tiktok":     "https://tiktok.com/@",
	"snapchat":   "https://snapchat.com/add/",
	"telegram":   "https://t.me/",
	"linkedin":   "https://linkedin.com/in/",
	"pinterest":  "https://pinterest.com/",
	"youtube":    "https://youtube.com/@",
	"twitch":     "https://twitch.tv/",
	"soundcloud": "https://soundcloud.com/",
	"github":     "https://github.com/",
	"behance":    "https://behance.net/",
	"dribbble":   "https://dribbble.com/",
	"steam":      "https://steamcommunity.com/id/",
	"paypal":     "https://paypal.me/",
	"cashapp":    "https://cash.app/$",
	"venmo":      "https://venmo.com/u/",
}

// Normalize validates raw against the platform requirement and produces the
// resolved link. It is pure and deterministic. A failed validation returns a
// *ValidationError and an empty link.
func Normalize(p Platform, raw string) (string, error) {
	value := strings.TrimSpace(raw)

	if reason := validate(p.Requirement, value); reason != "" {
		return "", &ValidationError{PlatformID: p.ID, Reason: reason}
	}

	return generateLink(p, value), nil
}

// validate returns the rejection reason, or "" when value is acceptable.
func validate(req Requirement, value string) string {
	switch req {
	case RequirePhone:
		if !IsPhone(value) {
			return ReasonInvalidPhone
		}
	case RequireURL:
		if !IsHTTPURL(value) {
			return ReasonInvalidURL
		}
	case RequireFreetext:
		if value == "" {
			return ReasonValueRequired
		}
	}
	return ""
}

// IsPhone reports whether s looks like a phone number.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s) && DigitsOnly(s) != ""
}

// IsHTTPURL reports whether s parses as an absolute http or https URL.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// encodeComponent escapes like a browser's encodeURIComponent: spaces become
// %20 rather than "+".
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func generateLink(p Platform, value string) string {
	if p.URLTemplate != "" {
		link := p.URLTemplate
		if strings.Contains(link, placeholderPhone) {
			link = strings.ReplaceAll(link, placeholderPhone, DigitsOnly(value))
		}
		if strings.Contains(link, placeholderValue) {
			link = strings.ReplaceAll(link, placeholderValue, encodeComponent(value))
		}
		return link
	}

	if value == "" {
		return ""
	}

	if prefix, ok := phoneLinks[p.ID]; ok && IsPhone(value) {
		if strings.HasPrefix(prefix, "tel:") || strings.HasPrefix(prefix, "sms:") {
			return prefix + dialNumber(value)
		}
		return prefix + DigitsOnly(value)
	}
	if p.Requirement == RequirePhone {
		return "tel:" + dialNumber(value)
	}

	if base, ok := handleLinks[p.ID]; ok {
		if hasHTTPScheme(value) {
			return value
		}
		return base + strings.TrimPrefix(value, "@")
	}

	if p.Requirement == RequireURL || p.ID == "website" {
		if hasHTTPScheme(value) {
			return value
		}
		return "https://" + value
	}

	return value
}

// dialNumber keeps an explicit international "+" prefix.
func dialNumber(s string) string {
	if strings.HasPrefix(s, "+") {
		return "+" + DigitsOnly(s)
	}
	return DigitsOnly(s)
}

func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
