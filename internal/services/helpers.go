package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// splitFullName tokenizes a free-text name on whitespace: first token becomes
// the given name, the remaining tokens joined become the family name. A
// single-token name yields an empty family name.
func splitFullName(name string) (first, last string) {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
