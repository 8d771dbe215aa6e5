package server

import (
	"net/http"
	"strings"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/logger"
)

// originChecker allows every origin when allowed is empty. Requests without
// an Origin header come from non-browser clients and are always accepted.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		set[strings.ToLower(strings.TrimRight(origin, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		if len(set) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		logger.WarnF("Blocked WebSocket connection from disallowed origin: %q", origin)
		return false
	}
}
