package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

var noContent = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestSecurityHeadersSurviveWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	Security(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, kv := range securityHeaders {
		if got := rec.Result().Header.Get(kv[0]); got != kv[1] {
			t.Errorf("%s = %q", kv[0], got)
		}
	}
}

func TestForceHTTPS(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		host    string
		tls     bool
		proto   string
		want    int
	}{
		{"disabled", false, "central.example.org", false, "", http.StatusNoContent},
		{"plain http", true, "central.example.org", false, "", http.StatusPermanentRedirect},
		{"tls", true, "central.example.org", true, "", http.StatusNoContent},
		{"proxy https", true, "central.example.org", false, "https", http.StatusNoContent},
		{"localhost", true, "localhost:8080", false, "", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/report?district=All", nil)
			r.Host = tc.host
			if tc.tls {
				r.TLS = &tls.ConnectionState{}
			}
			if tc.proto != "" {
				r.Header.Set("X-Forwarded-Proto", tc.proto)
			}
			rec := httptest.NewRecorder()
			ForceHTTPS(tc.enabled)(noContent).ServeHTTP(rec, r)
			if rec.Code != tc.want {
				t.Fatalf("code = %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusPermanentRedirect {
				if loc := rec.Header().Get("Location"); loc != "https://central.example.org/report?district=All" {
					t.Errorf("Location = %q", loc)
				}
			}
		})
	}
}
