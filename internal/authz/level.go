// Package authz implements role-based access control: the access-level
// resolver that maps free-text role labels to numeric levels, and the
// capability table evaluated per authenticated user.
package authz

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// roleLevels is the fixed role table. Keys are stored pre-normalized
// (lowercase, no diacritics) so lookups only need Normalize on the input.
// Higher level implies a superset of lower-level capabilities.
var roleLevels = map[string]int{
	"administrador":        6,
	"gerente":              6,
	"coordenador":          5,
	"coordenador clinico":  5,
	"supervisor":           4,
	"terapeuta supervisor": 4,
	"terapeuta senior":     3,
	"terapeuta":            2,
	"terapeuta auxiliar":   2,
	"estagiario":           1,
	"recepcao":             1,
}

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize strips diacritics, lowercases and trims a role label so that
// "Terapeuta Sênior " and "terapeuta senior" resolve identically.
func Normalize(label string) string {
	out, _, err := transform.String(stripAccents, label)
	if err != nil {
		out = label
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// Resolve maps a role label to its access level. Unknown labels resolve to
// level 0 (no access) — never an error.
func Resolve(label string) int {
	return roleLevels[Normalize(label)]
}

// AreaRole is one (clinical area, role label) pair assigned to a therapist.
type AreaRole struct {
	Area string
	Role string
}

// ResolveMax returns the highest access level across all area-role pairs,
// along with the label that won. On equal levels the first pair encountered
// wins. An empty slice yields (0, "").
func ResolveMax(pairs []AreaRole) (int, string) {
	best := 0
	label := ""
	for _, p := range pairs {
		if lvl := Resolve(p.Role); lvl > best {
			best = lvl
			label = p.Role
		}
	}
	return best, label
}
