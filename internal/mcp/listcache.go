package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// WrapListCache adds a short TTL cache in front of read-only list and
// describe tools. Mutating tools are never cached.
func WrapListCache(ctx ToolContext, spec ToolSpec) ToolSpec {
	if ctx.Cache == nil || ctx.Config == nil {
		return spec
	}
	if spec.Safety != SafetyReadOnly {
		return spec
	}
	if !strings.Contains(spec.Name, ".list_") && !strings.Contains(spec.Name, ".describe_") {
		return spec
	}
	ttlSeconds := ctx.Config.Cache.AWSListTTLSeconds
	if ttlSeconds <= 0 {
		return spec
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	handler := spec.Handler
	spec.Handler = func(callCtx context.Context, req ToolRequest) (ToolResult, error) {
		key := listCacheKey(spec.Name, req.Arguments)
		if cached, ok := ctx.Cache.Get(key); ok {
			return ToolResult{Data: cached}, nil
		}
		result, err := handler(callCtx, req)
		if err == nil && result.Data != nil {
			ctx.Cache.Set(key, result.Data, ttl)
		}
		return result, err
	}
	return spec
}

func listCacheKey(toolName string, args map[string]any) string {
	return fmt.Sprintf("awslist:%s:%s", toolName, stableValue(args))
}

func stableValue(value any) string {
	switch typed := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, stableValue(typed[key])))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case map[string]string:
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, typed[key]))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			parts = append(parts, stableValue(item))
		}
		return "[" + strings.Join(parts, ",") + "]"
	case []string:
		return "[" + strings.Join(typed, ",") + "]"
	case string:
		return strings.TrimSpace(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
