//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight types and helpers that collect per-request metadata
//  (user-agent fingerprint, client IP with optional geolocation, and
//  timestamp).  The structs are inert, so they are safe to log.
//
//  Admin actions (removals, course installs, gather triggers) attach
//  these fields to their audit log lines through LogFields.
//
//  Dependencies
//  • github.com/avct/uasurfer           (UA parsing)
//  • github.com/oschwald/geoip2-golang  (MaxMind lookup, optional)
//

package requestinfo

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
)

// UA holds the parsed user-agent properties.
type UA struct {
	Browser   string // "Chrome", "Firefox", "Safari", etc.
	Version   string // "124.0.6367"
	OS        string // "MacOSX", "Windows", "Android", etc.
	OSVersion string
	Device    string // "Desktop", "Phone", "Tablet", ...
	Platform  string // "Mac", "Windows", "Linux", ...
	IsBot     bool
}

// Geo holds IP-based location hints.  Empty when no database is loaded
// or the address has no match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// RequestInfo is stored in the request context by Enricher.Middleware.
type RequestInfo struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

type ctxKey struct{}

// FromContext returns the value stored by the middleware, or nil.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

// WithInfo returns ctx carrying info.
func WithInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// LogFields returns key/value pairs for zap's *w helpers.  It returns nil
// when the middleware has not run.
func LogFields(ctx context.Context) []any {
	info := FromContext(ctx)
	if info == nil {
		return nil
	}
	return []any{
		"ip", info.Geo.IP.String(),
		"country", info.Geo.CountryISO,
		"browser", info.UA.Browser,
		"os", info.UA.OS,
		"bot", info.UA.IsBot,
	}
}

//
//  Geo lookup
//

// Enricher parses request metadata.  A nil geo reader disables location
// lookups.
type Enricher struct {
	geo *geoip2.Reader
}

// NewEnricher opens the GeoLite2-City database at cityDB.  An empty path
// yields an Enricher without geolocation.
func NewEnricher(cityDB string) (*Enricher, error) {
	if cityDB == "" {
		return &Enricher{}, nil
	}
	r, err := geoip2.Open(cityDB)
	if err != nil {
		return nil, err
	}
	return &Enricher{geo: r}, nil
}

// Close releases the geo database, if any.
func (e *Enricher) Close() error {
	if e.geo == nil {
		return nil
	}
	return e.geo.Close()
}

func (e *Enricher) lookupGeo(ip net.IP) Geo {
	if e.geo == nil || ip == nil {
		return Geo{IP: ip}
	}
	rec, err := e.geo.City(ip)
	if err != nil {
		return Geo{IP: ip}
	}
	return Geo{
		IP:         ip,
		CountryISO: rec.Country.IsoCode,
		City:       rec.City.Names["en"],
	}
}

//
//  UA parsing
//

// ParseUA converts a raw header into UA using uasurfer.
func ParseUA(header string) UA {
	u := uasurfer.Parse(header)
	return UA{
		Browser:   strings.TrimPrefix(u.Browser.Name.String(), "Browser"),
		Version:   trimVersion(u.Browser.Version),
		OS:        strings.TrimPrefix(u.OS.Name.String(), "OS"),
		OSVersion: trimVersion(u.OS.Version),
		Device:    deviceName(u.DeviceType),
		Platform:  strings.TrimPrefix(u.OS.Platform.String(), "Platform"),
		IsBot:     u.IsBot(),
	}
}

// trimVersion builds "major.minor.patch" without trailing ".0" parts.
func trimVersion(v uasurfer.Version) string {
	out := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	for strings.HasSuffix(out, ".0") {
		out = strings.TrimSuffix(out, ".0")
	}
	return out
}

func deviceName(dt uasurfer.DeviceType) string {
	switch dt {
	case uasurfer.DeviceComputer:
		return "Desktop"
	case uasurfer.DevicePhone:
		return "Phone"
	case uasurfer.DeviceTablet:
		return "Tablet"
	case uasurfer.DeviceConsole:
		return "Console"
	case uasurfer.DeviceWearable:
		return "Wearable"
	case uasurfer.DeviceTV:
		return "TV"
	default:
		return "Unknown"
	}
}
