package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// allowlistStatus runs one request with the given remote address through the
// allowlist and returns the response code.
func allowlistStatus(cidrs []string, remoteAddr string) *httptest.ResponseRecorder {
	handler := IPAllowlist(cidrs, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = remoteAddr
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIPAllowlist_MatchingIP(t *testing.T) {
	rec := allowlistStatus([]string{"127.0.0.0/8"}, "127.0.0.1:12345")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPAllowlist_OutsideRange(t *testing.T) {
	rec := allowlistStatus([]string{"10.0.0.0/8"}, "192.168.1.1:12345")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Contains(t, body, "error")
}

func TestIPAllowlist_SeveralRanges(t *testing.T) {
	cidrs := []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

	tests := []struct {
		name   string
		addr   string
		status int
	}{
		{"10.x", "10.1.2.3:1234", http.StatusOK},
		{"172.16.x", "172.16.5.5:1234", http.StatusOK},
		{"192.168.x", "192.168.1.1:1234", http.StatusOK},
		{"public address", "8.8.8.8:1234", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, allowlistStatus(cidrs, tt.addr).Code)
		})
	}
}

func TestIPAllowlist_BadCIDRIgnored(t *testing.T) {
	rec := allowlistStatus([]string{"not-a-cidr", "127.0.0.0/8"}, "127.0.0.1:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPAllowlist_IPv6Loopback(t *testing.T) {
	rec := allowlistStatus([]string{"::1/128"}, "[::1]:1234")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPAllowlist_PortlessRemoteAddr(t *testing.T) {
	rec := allowlistStatus([]string{"127.0.0.0/8"}, "127.0.0.1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIPAllowlist_EmptyListDeniesEveryone(t *testing.T) {
	rec := allowlistStatus(nil, "127.0.0.1:1234")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func pprofRequest(t *testing.T, cidrs []string, path, remoteAddr string) *httptest.ResponseRecorder {
	t.Helper()

	r := chi.NewRouter()
	RegisterPprof(r, cidrs, discardLogger())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(rec, req)
	return rec
}

func TestRegisterPprof_IndexReachableFromAllowlist(t *testing.T) {
	rec := pprofRequest(t, []string{"127.0.0.0/8"}, "/debug/pprof/", "127.0.0.1:1234")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pprof")
}

func TestRegisterPprof_BlockedOutsideAllowlist(t *testing.T) {
	rec := pprofRequest(t, []string{"10.0.0.0/8"}, "/debug/pprof/", "192.168.1.1:1234")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRegisterPprof_NamedProfiles(t *testing.T) {
	// cmdline and symbol have dedicated handlers; heap rides the catch-all.
	for _, path := range []string{"/debug/pprof/cmdline", "/debug/pprof/symbol", "/debug/pprof/heap"} {
		rec := pprofRequest(t, []string{"127.0.0.0/8"}, path, "127.0.0.1:1234")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
