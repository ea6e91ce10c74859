// internal/routing/slug.go
//
// Anchor and path helpers.
//
// • Anchor(name) ─ turns a shortname into an HTML id usable as an
//   accordion target on the report page.  Only ASCII letters and digits
//   survive; case is kept.
// • BuildPath(parent, segs...) ─ joins path segments with single “/” and
//   guarantees exactly one leading slash.
//
// Notes
// -----
// • Two shortnames that differ only in punctuation collide.  Callers that
//   need unique ids prefix the row id (see AnchorID).
// • Anchors are capped at 64 bytes.

package routing

import (
	"strconv"
	"strings"
)

const maxAnchor = 64

// Anchor strips everything except [a-zA-Z0-9] from name.  An empty result
// becomes "item".
func Anchor(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}

	a := b.String()
	if a == "" {
		return "item"
	}
	if len(a) > maxAnchor {
		a = a[:maxAnchor]
	}
	return a
}

// AnchorID returns prefix + id + Anchor(name), e.g. "school12LincolnHS".
func AnchorID(prefix string, id int64, name string) string {
	return prefix + strconv.FormatInt(id, 10) + Anchor(name)
}

// BuildPath joins segs ensuring exactly one leading slash and no duplicate
// separators.  Empty segments are dropped.
func BuildPath(segs ...string) string {
	parts := make([]string, 0, len(segs))
	for _, s := range segs {
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return "/" + strings.Join(parts, "/")
}
