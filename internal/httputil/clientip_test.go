package httputil

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		xRealIP    string
		remoteAddr string
		expected   string
	}{
		{"forwarded-for wins", "10.0.0.1, 10.0.0.2", "10.0.0.3", "10.0.0.4:1234", "10.0.0.1"},
		{"real-ip fallback", "", "10.0.0.3", "10.0.0.4:1234", "10.0.0.3"},
		{"remote addr fallback", "", "", "10.0.0.4:1234", "10.0.0.4"},
		{"remote addr without port", "", "", "10.0.0.4", "10.0.0.4"},
		{"whitespace in forwarded-for", "  10.0.0.1 , 10.0.0.2", "", "10.0.0.4:1234", "10.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/action", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			assert.Equal(t, tt.expected, GetClientIP(req))
		})
	}
}
