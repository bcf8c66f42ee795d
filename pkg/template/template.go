// Package template resolves {{token}} placeholders in step configuration
// against the execution context.
package template

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/tasklab/automation/pkg/models"
)

var tokenPattern = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Resolve substitutes every {{token}} in the template. Tokens resolve in
// order against context variables, the trigger payload ("trigger.key")
// and prior step outputs ("stepId.field"). Unmatched tokens are left
// verbatim and logged at warn level; resolution never fails. Resolving
// the same template against an unchanged context is idempotent.
func Resolve(tmpl string, execCtx *models.ExecutionContext, logger *slog.Logger) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	return tokenPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		token := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(match, "{{"), "}}"))

		value, ok := execCtx.Lookup(token)
		if !ok {
			if logger != nil {
				logger.Warn("unresolved template token", "token", token)
			}

			return match
		}

		return stringify(value)
	})
}

// ResolveValue resolves templates inside an arbitrary config value. A
// string that is exactly one placeholder keeps the looked-up value's
// type; maps and slices are resolved recursively; everything else passes
// through untouched.
func ResolveValue(value any, execCtx *models.ExecutionContext, logger *slog.Logger) any {
	switch v := value.(type) {
	case string:
		if token, sole := soleToken(v); sole {
			if resolved, ok := execCtx.Lookup(token); ok {
				return resolved
			}

			if logger != nil {
				logger.Warn("unresolved template token", "token", token)
			}

			return v
		}

		return Resolve(v, execCtx, logger)
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, item := range v {
			resolved[key] = ResolveValue(item, execCtx, logger)
		}

		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = ResolveValue(item, execCtx, logger)
		}

		return resolved
	default:
		return value
	}
}

// ResolveConfig resolves every templated field of a step configuration,
// returning a fresh map so the definition stays untouched.
func ResolveConfig(config map[string]any, execCtx *models.ExecutionContext, logger *slog.Logger) map[string]any {
	resolved := make(map[string]any, len(config))
	for key, value := range config {
		resolved[key] = ResolveValue(value, execCtx, logger)
	}

	return resolved
}

// soleToken reports whether the string consists of exactly one placeholder.
func soleToken(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)

	loc := tokenPattern.FindStringSubmatchIndex(trimmed)
	if loc == nil || loc[0] != 0 || loc[1] != len(trimmed) {
		return "", false
	}

	return trimmed[loc[2]:loc[3]], true
}

func stringify(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprintf("%v", v)
}
