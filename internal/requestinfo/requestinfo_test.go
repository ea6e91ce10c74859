package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	if got := clientIP(r).String(); got != "10.0.0.9" {
		t.Errorf("remote addr ip = %s", got)
	}

	r.Header.Set("X-Real-Ip", "192.0.2.7")
	if got := clientIP(r).String(); got != "192.0.2.7" {
		t.Errorf("x-real-ip = %s", got)
	}

	r.Header.Set("X-Forwarded-For", "junk, 198.51.100.4, 10.0.0.1")
	if got := clientIP(r).String(); got != "198.51.100.4" {
		t.Errorf("x-forwarded-for = %s", got)
	}
}

func TestMiddlewareAttachesInfo(t *testing.T) {
	e, err := NewEnricher("")
	if err != nil {
		t.Fatalf("NewEnricher: %v", err)
	}
	defer e.Close()

	var info *RequestInfo
	h := e.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info = FromContext(r.Context())
	}))

	r := httptest.NewRequest(http.MethodGet, "/report", nil)
	r.RemoteAddr = "203.0.113.5:1234"
	r.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.6367.60 Safari/537.36")
	h.ServeHTTP(httptest.NewRecorder(), r)

	if info == nil {
		t.Fatal("no request info in context")
	}
	if info.Geo.IP.String() != "203.0.113.5" || info.Geo.CountryISO != "" {
		t.Errorf("geo = %+v", info.Geo)
	}
	if info.UA.Browser != "Chrome" || info.UA.IsBot {
		t.Errorf("ua = %+v", info.UA)
	}
	if fields := LogFields(r.Context()); fields != nil {
		t.Errorf("LogFields on bare request = %v", fields)
	}
}

func TestNewEnricherMissingDB(t *testing.T) {
	if _, err := NewEnricher("/nonexistent/GeoLite2-City.mmdb"); err == nil {
		t.Error("expected error for missing database")
	}
}
