package logger

import (
	"log/slog"
	"strings"
)

// Key patterns whose string values are fully redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"credential",
	"bearer",
	"session",
}

// Key patterns whose string values are partially masked, keeping enough
// of the value to correlate log lines.
var maskedKeyPatterns = []string{
	"token",
}

// redactedValue is the placeholder for fully redacted data.
const redactedValue = "***REDACTED***"

// redactSensitive filters a log attribute before output.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if strVal == "" {
			return a
		}

		keyLower := strings.ToLower(a.Key)
		for _, pattern := range maskedKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				return slog.String(a.Key, MaskToken(strVal))
			}
		}
		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				return slog.String(a.Key, redactedValue)
			}
		}
	}

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// MaskToken masks a token string for logging, keeping the first six and
// last four characters. Short values are hidden entirely.
func MaskToken(value string) string {
	if len(value) <= 16 {
		return "***"
	}
	return value[:6] + "..." + value[len(value)-4:]
}

// IsSensitiveKey reports whether a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range append(maskedKeyPatterns, sensitiveKeyPatterns...) {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
