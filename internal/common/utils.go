// Package common holds ambient helpers (logging, config, error envelopes)
// shared by the store and server packages. It carries no access-control
// semantics of its own.
package common

import (
	"strings"
	"time"
)

// GetCurrentTimestamp returns the current time in RFC3339 format, suitable
// for log lines and error envelopes.
func GetCurrentTimestamp() string {
	return time.Now().Format(time.RFC3339)
}

// NormalizeBasePath ensures a configured HTTP base path has a leading slash
// and no trailing slash, "" and "/" both normalizing to "/".
func NormalizeBasePath(p string) string {
	if p == "" || p == "/" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimRight(p, "/")
}
