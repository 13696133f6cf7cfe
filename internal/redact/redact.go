package redact

import (
	"regexp"
	"strings"
)

var (
	// AWS access key ids (long-term and temporary).
	accessKeyPattern = regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)
	// JWT fragments.
	jwtPattern = regexp.MustCompile(`eyJ[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+\.[a-zA-Z0-9_\-]+`)
	// Secret-key-shaped blobs: long base64-ish runs that contain a digit,
	// so ARN segments and resource names pass through untouched.
	secretPattern = regexp.MustCompile(`\b[A-Za-z0-9+/]*\d[A-Za-z0-9+/]*[A-Za-z0-9+/=]{39,}\b`)
)

// Map keys whose string values are always scrubbed regardless of shape.
var sensitiveKeys = map[string]struct{}{
	"secretaccesskey": {},
	"sessiontoken":    {},
	"authorization":   {},
}

type Redactor struct{}

func New() *Redactor {
	return &Redactor{}
}

func (r *Redactor) RedactString(input string) string {
	out := accessKeyPattern.ReplaceAllString(input, "[REDACTED]")
	out = jwtPattern.ReplaceAllString(out, "[REDACTED]")
	out = secretPattern.ReplaceAllString(out, "[REDACTED]")
	return out
}

func (r *Redactor) RedactMap(input map[string]any) map[string]any {
	output := map[string]any{}
	for k, v := range input {
		if _, sensitive := sensitiveKeys[strings.ToLower(k)]; sensitive {
			if _, ok := v.(string); ok {
				output[k] = "[REDACTED]"
				continue
			}
		}
		output[k] = r.RedactValue(v)
	}
	return output
}

func (r *Redactor) RedactValue(input any) any {
	switch v := input.(type) {
	case string:
		return r.RedactString(v)
	case map[string]any:
		return r.RedactMap(v)
	case []any:
		redacted := make([]any, 0, len(v))
		for _, item := range v {
			redacted = append(redacted, r.RedactValue(item))
		}
		return redacted
	default:
		return input
	}
}
