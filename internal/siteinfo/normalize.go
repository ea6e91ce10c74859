// internal/siteinfo/normalize.go
//
// Row normalizer.
//
// Context
// -------
// Remote siteinfo tables were created by several generations of the
// reporting plugin, so column presence varies and every value arrives as
// whatever the driver produced (usually []byte over the MySQL text
// protocol).  Normalize turns one such row into a Record with fixed types.
//
// Rules
// -----
//   • Domain   – baseurl with one leading `http://` or `https://` removed.
//   • Version  – first three characters of siterelease.
//   • Location – `php…` becomes "platform"; other values pass through;
//                a missing or NULL column becomes "unknown".
//   • Courses  – parsed as a JSON array of objects.  An empty array is
//                treated as absent.  Anything else leaves the list absent
//                and records a Degradation.
//   • Missing or unconvertible optional fields fall back to zero values.
//     Each fallback is reported as a Degradation, never as an error.

package siteinfo

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/orvsd/central/internal/central"
)

// RawRow is one remote siteinfo row keyed by column name.
type RawRow map[string]any

// Record is the canonical form of one siteinfo row.
type Record struct {
	Source string // schema.table the row came from

	SiteName string
	SiteType central.SiteType
	BaseURL  string // as reported, protocol included
	Domain   string // BaseURL without protocol; the identity key
	BasePath string
	Location string

	Version      string
	SiteVersion  string
	SiteRelease  string
	AdminEmail   string
	TotalUsers   int64
	AdminUsers   int64
	Teachers     int64
	ActiveUsers  int64
	TotalCourses int64

	// Courses is nil when the column was absent, empty, or malformed.
	// CoursesJSON holds the verbatim string whenever Courses parsed.
	Courses     []map[string]any
	CoursesJSON string

	// ReportedAt is the remote row's own timemodified, zero when absent.
	ReportedAt time.Time
}

// Resolvable reports whether the record carries an identity key.
func (r Record) Resolvable() bool { return r.Domain != "" }

// HasCourses reports whether a usable course list was found.
func (r Record) HasCourses() bool { return r.Courses != nil }

const (
	locationUnknown  = "unknown"
	locationPlatform = "platform"
)

var protocolRE = regexp.MustCompile(`^http[s]?://`)

// StripProtocol removes one leading http:// or https:// from u.  Applying
// it to an already stripped domain returns the domain unchanged.
func StripProtocol(u string) string {
	return protocolRE.ReplaceAllString(u, "")
}

// Normalize converts raw into a Record.  It never fails; degraded fields
// are returned alongside.
func Normalize(raw RawRow) (Record, []Degradation) {
	n := normalizer{raw: raw}

	rec := Record{
		SiteName:     n.str("sitename"),
		BaseURL:      n.str("baseurl"),
		BasePath:     n.str("basepath"),
		SiteVersion:  n.str("siteversion"),
		SiteRelease:  n.str("siterelease"),
		AdminEmail:   n.str("adminemail"),
		TotalUsers:   n.integer("totalusers"),
		AdminUsers:   n.integer("adminusers"),
		Teachers:     n.integer("teachers"),
		ActiveUsers:  n.integer("activeusers"),
		TotalCourses: n.integer("totalcourses"),
	}

	rec.Domain = StripProtocol(rec.BaseURL)
	rec.Version = prefix(rec.SiteRelease, 3)
	rec.SiteType = n.siteType()
	rec.Location = n.location()
	rec.Courses, rec.CoursesJSON = n.courses()
	rec.ReportedAt = n.timestamp("timemodified")

	return rec, n.degraded
}

/*──────────────────────────── field helpers ───────────────────────────────*/

type normalizer struct {
	raw      RawRow
	degraded []Degradation
}

func (n *normalizer) degrade(field, format string, args ...any) {
	n.degraded = append(n.degraded, Degradation{Field: field, Reason: fmt.Sprintf(format, args...)})
}

// lookup returns the column value and whether the column exists and is
// non-NULL.
func (n *normalizer) lookup(field string) (any, bool) {
	v, ok := n.raw[field]
	return v, ok && v != nil
}

func (n *normalizer) str(field string) string {
	v, ok := n.lookup(field)
	if !ok {
		n.degrade(field, "missing")
		return ""
	}
	s, ok := asString(v)
	if !ok {
		n.degrade(field, "unexpected type %T", v)
	}
	return s
}

func (n *normalizer) integer(field string) int64 {
	v, ok := n.lookup(field)
	if !ok {
		n.degrade(field, "missing")
		return 0
	}
	i, err := asInt(v)
	if err != nil {
		n.degrade(field, "%v", err)
		return 0
	}
	return i
}

func (n *normalizer) timestamp(field string) time.Time {
	v, ok := n.lookup(field)
	if !ok {
		return time.Time{}
	}
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	default:
		// Moodle stores unix seconds.
		if secs, err := asInt(v); err == nil && secs > 0 {
			return time.Unix(secs, 0).UTC()
		}
	}
	return time.Time{}
}

func (n *normalizer) siteType() central.SiteType {
	v, ok := n.lookup("sitetype")
	if !ok {
		n.degrade("sitetype", "missing, assuming %s", central.SiteTypeMoodle)
		return central.SiteTypeMoodle
	}
	s, _ := asString(v)
	t := central.SiteType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		n.degrade("sitetype", "unknown type %q, assuming %s", s, central.SiteTypeMoodle)
		return central.SiteTypeMoodle
	}
	return t
}

func (n *normalizer) location() string {
	v, ok := n.lookup("location")
	if !ok {
		return locationUnknown
	}
	s, _ := asString(v)
	if prefix(s, 3) == "php" {
		return locationPlatform
	}
	return s
}

func (n *normalizer) courses() ([]map[string]any, string) {
	v, ok := n.lookup("courses")
	if !ok {
		return nil, ""
	}
	s, _ := asString(v)
	if strings.TrimSpace(s) == "" {
		return nil, ""
	}

	var list []map[string]any
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		n.degrade("courses", "not a JSON array of objects: %v", err)
		return nil, ""
	}
	if list == nil {
		// JSON null
		n.degrade("courses", "null course list")
		return nil, ""
	}
	if len(list) == 0 {
		// Well formed but empty: same as no course list.
		return nil, ""
	}
	return list, s
}

/*──────────────────────────── conversions ─────────────────────────────────*/

func asString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case []byte:
		return string(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case time.Time:
		return t.UTC().Format(time.RFC3339), true
	default:
		return fmt.Sprint(t), false
	}
}

func asInt(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint64:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case []byte:
		return parseInt(string(t))
	case string:
		return parseInt(t)
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	// DECIMAL columns arrive as "12.00".
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return int64(f), nil
}

// prefix returns the first n runes of s, or s when shorter.
func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
