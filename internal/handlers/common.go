package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/linkplate/backend/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writePublicError emits the bare {"error": ...} shape used by the public
// profile endpoint, which does not wrap its responses in APIResponse.
func writePublicError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, models.PublicError{Error: message})
}

func clientIP(r *http.Request) string {
	// Behind a proxy X-Forwarded-For carries the caller. Use first IP if present.
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if net.ParseIP(ip) != nil {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	if net.ParseIP(r.RemoteAddr) != nil {
		return r.RemoteAddr
	}
	return ""
}
